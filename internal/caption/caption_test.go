package caption

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/gallerycaptions/internal/model"
)

const null = model.NullSentinel

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		item model.Item
		want string
	}{
		{"all null", model.Item{Description: null, Summary: null, Title: null}, ""},
		{"all empty", model.Item{}, ""},
		{"single", model.Item{Description: null, Summary: "", Title: "Beach"}, "Beach"},
		{"identical collapse", model.Item{Description: "Dog", Summary: "Dog", Title: "Dog"}, "Dog"},
		{"sorted by length", model.Item{Description: "A long description", Summary: "Mid length", Title: "Hi"}, "Hi - Mid length - A long description"},
		{"equal length keeps field order", model.Item{Description: "bbb", Summary: "aaa", Title: "cc"}, "cc - bbb - aaa"},
		{"duplicate title collapses", model.Item{ID: "5", Description: "A sunset", Summary: null, Title: "A sunset"}, "A sunset"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Resolve(tt.item))
		})
	}
}

func TestResolveContainsEachValueOnce(t *testing.T) {
	t.Parallel()

	pool := []string{null, "", "Sea", "Harbour", "Sunrise over the bay"}
	for _, d := range pool {
		for _, s := range pool {
			for _, ti := range pool {
				got := Resolve(model.Item{Description: d, Summary: s, Title: ti})

				want := map[string]bool{}
				for _, v := range []string{d, s, ti} {
					if v != "" && v != null {
						want[v] = true
					}
				}
				if len(want) == 0 {
					assert.Empty(t, got)
					continue
				}

				parts := strings.Split(got, Separator)
				require.Len(t, parts, len(want), "caption %q", got)
				for i, p := range parts {
					assert.True(t, want[p], "unexpected segment %q", p)
					if i > 0 {
						assert.LessOrEqual(t, len(parts[i-1]), len(p))
					}
				}
			}
		}
	}
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyAppend, p)

	p, err = ParsePolicy(" Dedupe ")
	require.NoError(t, err)
	assert.Equal(t, PolicyDedupe, p)

	_, err = ParsePolicy("replace")
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		existing  string
		present   bool
		derived   string
		policy    Policy
		want      string
		wantWrite bool
	}{
		{"no existing", "", false, "new", PolicyAppend, "new", true},
		{"append", "old", true, "new", PolicyAppend, "old - new", true},
		{"append repeats on rerun", "old", true, "old", PolicyAppend, "old - old", true},
		{"dedupe equal", "old", true, "old", PolicyDedupe, "old", false},
		{"dedupe suffix", "camera - new", true, "new", PolicyDedupe, "camera - new", false},
		{"dedupe appends new text", "camera", true, "new", PolicyDedupe, "camera - new", true},
		{"dedupe needs whole segment", "renew", true, "new", PolicyDedupe, "renew - new", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, write := Merge(tt.existing, tt.present, tt.derived, tt.policy)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantWrite, write)
		})
	}
}
