package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cleanManifest = `apiVersion: apps/v1
kind: Deployment
metadata:
  name: checkout-api
spec:
  replicas: 3
  template:
    spec:
      containers:
        - name: checkout-api
          image: registry.company.com/checkout-api:v1.8.2
          resources:
            limits:
              cpu: 500m
              memory: 256Mi
          env:
            - name: LOG_LEVEL
              value: info
            - name: DB_PASSWORD
              valueFrom:
                secretKeyRef:
                  name: checkout-db
                  key: password
`

func TestLintManifestFindsDeployRisks(t *testing.T) {
	store := embeddedEvidence(t)
	manifest, err := store.Text("manifest.yaml")
	require.NoError(t, err)

	warnings := LintManifest(manifest)
	require.Len(t, warnings, 5)

	joined := ""
	for _, w := range warnings {
		joined += w + "\n"
	}
	assert.Contains(t, joined, "replicas is 1")
	assert.Contains(t, joined, "mutable image tag")
	assert.Contains(t, joined, "runs privileged")
	assert.Contains(t, joined, "no resource limits")
	assert.Contains(t, joined, "embeds a credential in env DB_URL")
}

func TestLintManifestCleanManifest(t *testing.T) {
	assert.Empty(t, LintManifest(cleanManifest))
}

func TestLintManifestEmptyInput(t *testing.T) {
	assert.Nil(t, LintManifest(""))
	assert.Nil(t, LintManifest("   \n"))
}

func TestLintManifestUnparseable(t *testing.T) {
	warnings := LintManifest("kind: Deployment\n\tbad: [unclosed")
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "not parseable YAML")
}

func TestLintManifestMultiDocument(t *testing.T) {
	manifest := cleanManifest + "---\n" + `apiVersion: v1
kind: Pod
metadata:
  name: debug
spec:
  containers:
    - name: debug
      image: busybox
`
	warnings := LintManifest(manifest)

	// The Pod document has an untagged image and no limits; the clean
	// Deployment contributes nothing.
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "mutable image tag")
	assert.Contains(t, warnings[1], "no resource limits")
}

func TestImageTag(t *testing.T) {
	assert.Equal(t, "latest", imageTag("registry.company.com/checkout-api:latest"))
	assert.Equal(t, "v1.8.2", imageTag("registry.company.com:5000/checkout-api:v1.8.2"))
	assert.Equal(t, "", imageTag("busybox"))
	assert.Equal(t, "sha256:abc123", imageTag("registry.company.com/app@sha256:abc123"))
}
