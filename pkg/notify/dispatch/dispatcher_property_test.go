package dispatch

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/nimburion/notify/pkg/notify"
)

func genConfigValue() gopter.Gen {
	return gen.OneGenOf(gen.Const(""), gen.Const("   "), gen.Identifier())
}

// Every document accepted by notify.Validate builds a dispatcher with the default factory.
func TestProperty_ValidDocumentsBuildDispatcher(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("validate ok implies new ok", prop.ForAll(
		func(token, url, path string, withURL, withPath bool) bool {
			chanifyConfig := map[string]any{"token": token}
			if withURL {
				chanifyConfig["url"] = url
			}
			reporter := map[string]any{"service": "file_reporter"}
			if withPath {
				reporter["config"] = map[string]any{"file_path": path}
			}
			doc, err := notify.Validate(map[string]any{"services": []any{
				map[string]any{"service": "chanify", "config": chanifyConfig},
				reporter,
			}})
			if err != nil {
				return true
			}
			d, err := New(doc, WithTimeout(time.Second))
			if err != nil {
				t.Logf("new: %v", err)
				return false
			}
			return d.Close() == nil
		},
		genConfigValue(),
		genConfigValue(),
		genConfigValue(),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
