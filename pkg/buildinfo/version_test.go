package buildinfo

import (
	"strings"
	"testing"
)

func TestStrings(t *testing.T) {
	if !strings.Contains(String(), "version: "+Version) {
		t.Errorf("String() = %q, want version line", String())
	}
	if !strings.HasPrefix(Template(), "{{.Name}} version ") {
		t.Errorf("Template() = %q", Template())
	}
	if got := UserAgent(); got != "imprint/"+Version {
		t.Errorf("UserAgent() = %q", got)
	}
}
