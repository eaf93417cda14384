package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/traylinx/truthscore/internal/kv"
)

func TestCodec_RoundTrip(t *testing.T) {
	in := Ledger{
		TotalScore: 40,
		History: []Record{
			{
				ID:          "b",
				Kind:        KindWebsite,
				Source:      SourceWebsite,
				Content:     "http://bit.ly/free-win",
				Verdict:     false,
				Confidence:  50,
				Explanation: "This website may have security concerns.",
				RiskFactors: []string{"No HTTPS encryption", "Suspicious domain pattern"},
				Timestamp:   baseTime.Add(1500 * time.Millisecond),
			},
			newsRecord(1, true),
		},
	}

	score, history, err := Encode(in)
	require.NoError(t, err)
	assert.Equal(t, "40", score)

	items := gjson.Parse(history).Array()
	require.Len(t, items, 2)
	assert.False(t, items[0].Get("isLegitimate").Bool())
	assert.False(t, items[0].Get("isTrue").Exists())
	assert.Equal(t, "website", items[0].Get("type").String())
	assert.Equal(t, "2026-10-17T09:30:01.5Z", items[0].Get("timestamp").String())
	assert.True(t, items[1].Get("isTrue").Bool())
	assert.Equal(t, "text", items[1].Get("type").String())

	out, err := Decode(score, history)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(in, out))
}

func TestCodec_LenientDecode(t *testing.T) {
	raw := `[
		{"isTrue":true,"confidence":90,"content":"a","type":"url","timestamp":"2026-10-17T09:30:00.000Z","extra":{"x":1}},
		{"confidence":70,"content":"no verdict","type":"text"},
		{"isLegitimate":"yes","content":"string verdict"},
		42,
		{"isLegitimate":true,"confidence":85,"content":"https://example.com","type":"website","timestamp":"2026-10-17T09:31:00Z"}
	]`
	l, err := Decode("20", raw)
	require.NoError(t, err)
	require.Len(t, l.History, 2)

	assert.Equal(t, KindNews, l.History[0].Kind)
	assert.Equal(t, SourceURL, l.History[0].Source)
	assert.True(t, baseTime.Equal(l.History[0].Timestamp))
	assert.Equal(t, KindWebsite, l.History[1].Kind)
	assert.True(t, l.History[1].Verdict)
}

func TestCodec_DecodeCapsHistory(t *testing.T) {
	history := make([]Record, 0, 15)
	for i := 0; i < 15; i++ {
		history = append(history, newsRecord(i, true))
	}
	_, raw, err := Encode(Ledger{History: history})
	require.NoError(t, err)

	l, err := Decode("", raw)
	require.NoError(t, err)
	assert.Len(t, l.History, MaxHistory)
}

func TestCodec_DecodeReportsCorruption(t *testing.T) {
	l, err := Decode("ten", "[")
	assert.True(t, errors.Is(err, ErrStorageCorrupt))
	assert.Equal(t, 0, l.TotalScore)
	assert.Empty(t, l.History)
}

func TestRecord_UnmarshalJSON(t *testing.T) {
	var rec Record
	require.NoError(t, rec.UnmarshalJSON([]byte(`{"isTrue":false,"confidence":50,"content":"c","type":"text"}`)))
	assert.False(t, rec.Verdict)
	assert.Equal(t, 50, rec.Confidence)

	assert.Error(t, rec.UnmarshalJSON([]byte(`{"content":"c"}`)))
	assert.Error(t, rec.UnmarshalJSON([]byte(`{`)))
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "short", Summarize("short"))

	long := ""
	for i := 0; i < 120; i++ {
		long += "é"
	}
	got := Summarize(long)
	assert.Equal(t, []rune(long)[:100], []rune(got)[:100])
	assert.Equal(t, "...", got[len(got)-3:])
}

func TestProperty_LedgerAccounting(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("score is 10 per true verdict and history is capped", prop.ForAll(
		func(verdicts []bool) bool {
			ctx := context.Background()
			s := NewStore(kv.NewMemory())

			trues := 0
			for i, v := range verdicts {
				if v {
					trues++
				}
				if _, err := s.RecordResult(ctx, newsRecord(i, v)); err != nil {
					return false
				}
			}

			l := s.Read(ctx)
			wantLen := len(verdicts)
			if wantLen > MaxHistory {
				wantLen = MaxHistory
			}
			if l.TotalScore != trues*Reward || len(l.History) != wantLen {
				return false
			}
			for i := 1; i < len(l.History); i++ {
				if !l.History[i-1].Timestamp.After(l.History[i].Timestamp) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.Property("encode then decode preserves the ledger", prop.ForAll(
		func(score int, contents []string) bool {
			in := Ledger{TotalScore: score, History: []Record{}}
			for i, c := range contents {
				if i == MaxHistory {
					break
				}
				rec := newsRecord(i, i%2 == 0)
				rec.Content = c
				in.History = append(in.History, rec)
			}
			s, h, err := Encode(in)
			if err != nil {
				return false
			}
			out, err := Decode(s, h)
			return err == nil && cmp.Equal(in, out)
		},
		gen.IntRange(0, 1_000_000),
		gen.SliceOf(gen.AnyString()),
	))

	properties.TestingRun(t)
}
