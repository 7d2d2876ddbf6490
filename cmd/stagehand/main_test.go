package main

import (
	"strings"
	"testing"
)

func TestCommandsRegistered(t *testing.T) {
	want := []string{"run", "serve", "watch", "tools", "version"}
	for _, name := range want {
		found := false
		for _, cmd := range rootCmd.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("%s command not found in rootCmd", name)
		}
	}
}

func TestRunCmdFlags(t *testing.T) {
	for _, name := range []string{"stage", "output", "evidence"} {
		if runCmd.Flags().Lookup(name) == nil {
			t.Errorf("run command should have --%s flag", name)
		}
	}
}

func TestValidateStageFlag(t *testing.T) {
	tests := []struct {
		stage   string
		wantErr string
	}{
		{stage: "pr"},
		{stage: "build"},
		{stage: "post"},
		{stage: "", wantErr: "required"},
		{stage: "deploy", wantErr: "unknown stage"},
		{stage: "PR", wantErr: "unknown stage"},
	}

	for _, tt := range tests {
		err := validateStageFlag(tt.stage)
		if tt.wantErr == "" {
			if err != nil {
				t.Errorf("validateStageFlag(%q) = %v, want nil", tt.stage, err)
			}
			continue
		}
		if err == nil {
			t.Errorf("validateStageFlag(%q) should fail", tt.stage)
			continue
		}
		if !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("validateStageFlag(%q) error = %v, want mention of %q", tt.stage, err, tt.wantErr)
		}
	}
}
