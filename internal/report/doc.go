// Package report renders and delivers finished stage reports. The
// console emitter is the human surface and the JSON emitter the
// machine one; the NATS emitter publishes reports for downstream
// consumers. Emitters are composable through Multi.
package report
