package trace

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolkov/hldrdetector/internal/hldr/backtrace"
	"github.com/kolkov/hldrdetector/internal/hldr/detector"
)

func TestParse(t *testing.T) {
	input := `
# a comment, then a blank line

start 1
start 2
enter 2
write 2 0x10 0x101
read  2 16
exit  2
finish 2
`
	events, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	want := []Event{
		{Kind: ThreadStart, Thread: 1},
		{Kind: ThreadStart, Thread: 2},
		{Kind: RegionEnter, Thread: 2},
		{Kind: MemoryWrite, Thread: 2, Addr: 0x10, Instr: 0x101},
		{Kind: MemoryRead, Thread: 2, Addr: 0x10},
		{Kind: RegionExit, Thread: 2},
		{Kind: ThreadFinish, Thread: 2},
	}
	assert.Equal(t, want, events)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "unknown keyword", input: "lock 1", want: `unknown event "lock"`},
		{name: "missing thread id", input: "enter", want: "needs 1 operand(s)"},
		{name: "missing address", input: "read 1", want: "needs 2 operand(s)"},
		{name: "too many operands", input: "exit 1 2", want: "at most 1 operand(s)"},
		{name: "extra memory operand", input: "write 1 0x10 0x20 0x30", want: "at most 3 operand(s)"},
		{name: "bad thread id", input: "start x", want: `bad thread id "x"`},
		{name: "bad address", input: "read 1 zz", want: `bad address "zz"`},
		{name: "bad instruction", input: "write 1 0x10 zz", want: `bad instruction id "zz"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSyntax)
			assert.Contains(t, err.Error(), tt.want)
			assert.Contains(t, err.Error(), "line 1:")
		})
	}
}

func TestParseReportsLineNumbers(t *testing.T) {
	input := "start 1\n\n# ok so far\nbogus 2\n"
	_, err := Parse(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 4:")
}

func TestParseEmptyTrace(t *testing.T) {
	events, err := Parse(strings.NewReader("# nothing but comments\n\n"))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{ThreadStart, "start"},
		{ThreadFinish, "finish"},
		{RegionEnter, "enter"},
		{RegionExit, "exit"},
		{MemoryRead, "read"},
		{MemoryWrite, "write"},
		{Kind(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.String())
	}
}

func TestReplaySplitUpdateGolden(t *testing.T) {
	f, err := os.Open("testdata/split_update.trace")
	require.NoError(t, err)
	defer f.Close()

	events, err := Parse(f)
	require.NoError(t, err)

	var out bytes.Buffer
	d := detector.New(detector.Options{
		Output:   &out,
		Provider: backtrace.NopProvider{},
		Resolver: backtrace.NopResolver{},
	})
	Replay(events, d)

	assert.Equal(t, 1, d.ViolationsDetected())

	g := goldie.New(t)
	g.Assert(t, "replay_split_update", out.Bytes())
}

func TestReplayIsDeterministic(t *testing.T) {
	data, err := os.ReadFile("testdata/split_update.trace")
	require.NoError(t, err)

	run := func() string {
		events, err := Parse(bytes.NewReader(data))
		require.NoError(t, err)
		var out bytes.Buffer
		d := detector.New(detector.Options{
			Output:   &out,
			Provider: backtrace.NopProvider{},
			Resolver: backtrace.NopResolver{},
		})
		Replay(events, d)
		return out.String()
	}

	first := run()
	require.NotEmpty(t, first)
	assert.Equal(t, first, run())
}
