package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{"serve": false, "migrate": false, "recompute-levels": false, "set-xp": false, "generate": false, "events": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("command %q not registered", name)
		}
	}
}

func TestRequiredFlags(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"set-xp", "--xp", "10", "--reason", "fix"}, "--user"},
		{[]string{"set-xp", "--user", "u1", "--xp", "10"}, "--reason"},
		{[]string{"generate", "--topic", "Go"}, "--owner"},
	}
	for _, tc := range cases {
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetErr(&out)
		rootCmd.SetArgs(tc.args)
		err := rootCmd.ExecuteContext(context.Background())
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%v: expected error mentioning %s, got %v", tc.args, tc.want, err)
		}
		resetFlags()
	}
}

func resetFlags() {
	_ = setXPCmd.Flags().Set("user", "")
	_ = setXPCmd.Flags().Set("reason", "")
	_ = generateCmd.Flags().Set("owner", "")
}
