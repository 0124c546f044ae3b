package taskdef

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteRoundTripIsStructurallyIdentical(t *testing.T) {
	src := `
task {
  name        = "roundtrip"
  version     = "2.1"
  description = "serialization check"
}

block "main" {
  init = { "1" = 0, "2" = false }
  tree {
    seq {
      instruction {
        text     = "Hello"
        duration = 1.5
      }
      until {
        event = "resp"
        repeat {
          seq {
            fixation {
              duration = 0.4 + 0.1
            }
            rect {
              width    = 80
              height   = 80
              color    = "red"
              duration = 1
            }
          }
        }
      }
    }
  }
}

block "debrief" {
  tree {
    instruction {
      text = "Done"
    }
  }
}
`
	first, err := LoadBytes("task.hcl", []byte(src))
	require.NoError(t, err)

	out := Write(first)
	second, err := LoadBytes("rewritten.hcl", out)
	require.NoError(t, err, "serialized form must parse:\n%s", out)

	require.Equal(t, first.Name, second.Name)
	require.Equal(t, first.Version, second.Version)
	require.Equal(t, first.Description, second.Description)
	require.Len(t, second.Blocks, len(first.Blocks))
	for i := range first.Blocks {
		require.Equal(t, first.Blocks[i].Name, second.Blocks[i].Name)
		require.True(t, first.Blocks[i].Tree.Equal(second.Blocks[i].Tree),
			"block %q differs:\n%s\nvs\n%s",
			first.Blocks[i].Name, first.Blocks[i].Tree.Dump(), second.Blocks[i].Tree.Dump())
	}
	require.Equal(t, first.Blocks[0].Init, second.Blocks[0].Init)
}

func TestWriteRoundTripAfterTemplateExpansion(t *testing.T) {
	first, err := LoadBytes("task.hcl", []byte(trialTemplateTask))
	require.NoError(t, err)

	second, err := LoadBytes("rewritten.hcl", Write(first))
	require.NoError(t, err)
	require.True(t, first.Blocks[0].Tree.Equal(second.Blocks[0].Tree))
}
