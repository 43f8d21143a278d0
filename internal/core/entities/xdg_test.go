package entities

import "testing"

func TestXDGPathsRulePacksDir(t *testing.T) {
	tests := []struct {
		name  string
		paths XDGPaths
		want  string
	}{
		{
			name:  "derived from data home",
			paths: XDGPaths{DataHome: "/home/u/.local/share/tokenforge"},
			want:  "/home/u/.local/share/tokenforge/rulepacks",
		},
		{
			name: "override wins over data home",
			paths: XDGPaths{
				DataHome:          "/home/u/.local/share/tokenforge",
				RulePacksOverride: "/shared/policy/rulepacks",
			},
			want: "/shared/policy/rulepacks",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.paths.RulePacksDir(); got != tt.want {
				t.Errorf("RulePacksDir() = %q, want %q", got, tt.want)
			}
		})
	}
}
