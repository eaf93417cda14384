package archive

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traylinx/truthscore/internal/ledger"
	"github.com/traylinx/truthscore/internal/util"
)

func newTestArchive(t *testing.T) *Archive {
	t.Helper()
	sb, err := util.NewStateBoxAt(t.TempDir(), false)
	require.NoError(t, err)

	a, err := New("verifications.db", 30)
	require.NoError(t, err)
	a.SetStateBox(sb)
	require.NoError(t, a.Initialize(context.Background()))
	t.Cleanup(func() { _ = a.Shutdown() })

	assert.Equal(t, filepath.Join(sb.ArchiveDir(), "verifications.db"), a.Path())
	return a
}

func TestNew_Validation(t *testing.T) {
	_, err := New("", 10)
	assert.Error(t, err)

	a, err := New("x.db", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultRetentionDays, a.retentionDays)
	assert.False(t, a.IsEnabled())

	err = a.Record(context.Background(), Entry{ID: "x"})
	assert.Error(t, err)
}

func TestArchive_RecordAndRecent(t *testing.T) {
	ctx := context.Background()
	a := newTestArchive(t)
	now := time.Now().UTC().Truncate(time.Second)

	website := ledger.Record{
		ID:          "w1",
		Kind:        ledger.KindWebsite,
		Source:      ledger.SourceWebsite,
		Content:     "http://bit.ly/free-win",
		Confidence:  50,
		Explanation: "This website may have security concerns.",
		RiskFactors: []string{"No HTTPS encryption", "Suspicious domain pattern"},
		Timestamp:   now.Add(-time.Minute),
	}
	company := ledger.Record{
		ID:         "c1",
		Kind:       ledger.KindCompany,
		Source:     "company",
		Content:    "Reliance Industries Limited",
		Verdict:    true,
		Confidence: 85,
		Timestamp:  now,
	}
	require.NoError(t, a.Record(ctx, EntryFromRecord(website, "")))
	require.NoError(t, a.Record(ctx, EntryFromRecord(company, "CIN-ABC123XYZ")))

	entries, err := a.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "c1", entries[0].ID)
	assert.Equal(t, ledger.KindCompany, entries[0].Kind)
	assert.True(t, entries[0].Verdict)
	assert.Equal(t, "CIN-ABC123XYZ", entries[0].RegistrationID)
	assert.True(t, now.Equal(entries[0].CreatedAt))

	assert.Equal(t, "w1", entries[1].ID)
	assert.Equal(t, website.RiskFactors, entries[1].RiskFactors)
	assert.False(t, entries[1].Verdict)

	limited, err := a.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestArchive_Stats(t *testing.T) {
	ctx := context.Background()
	a := newTestArchive(t)

	for i, kind := range []ledger.Kind{ledger.KindNews, ledger.KindNews, ledger.KindWebsite, ledger.KindCompany} {
		require.NoError(t, a.Record(ctx, Entry{
			ID:         string(rune('a' + i)),
			Kind:       kind,
			Source:     "text",
			Content:    "x",
			Verdict:    i%2 == 0,
			Confidence: 60 + i*10,
		}))
	}

	stats, err := a.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats["total_records"])
	assert.Equal(t, int64(2), stats["verified_records"])
	assert.InDelta(t, 0.5, stats["verified_rate"], 0.0001)
	assert.InDelta(t, 75.0, stats["avg_confidence"], 0.0001)
	assert.Equal(t, map[string]int64{"news": 2, "website": 1, "company": 1}, stats["kind_distribution"])
}

func TestArchive_CleanupHonoursRetention(t *testing.T) {
	ctx := context.Background()
	a := newTestArchive(t)

	require.NoError(t, a.Record(ctx, Entry{ID: "old", Kind: ledger.KindNews, Source: "text", Content: "old",
		CreatedAt: time.Now().AddDate(0, 0, -31)}))
	require.NoError(t, a.Record(ctx, Entry{ID: "new", Kind: ledger.KindNews, Source: "text", Content: "new"}))

	n, err := a.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	entries, err := a.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "new", entries[0].ID)
}

func TestArchive_RunRetentionStopsOnCancel(t *testing.T) {
	a := newTestArchive(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.RunRetention(ctx, time.Hour) }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("RunRetention did not stop")
	}
}

func TestArchive_ReadOnlyRejectsWrites(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	sb, err := util.NewStateBoxAt(dir, false)
	require.NoError(t, err)
	rw, err := New("verifications.db", 0)
	require.NoError(t, err)
	rw.SetStateBox(sb)
	require.NoError(t, rw.Initialize(ctx))
	require.NoError(t, rw.Record(ctx, Entry{ID: "a", Kind: ledger.KindNews, Source: "text", Content: "a"}))
	require.NoError(t, rw.Shutdown())

	roBox, err := util.NewStateBoxAt(dir, true)
	require.NoError(t, err)
	ro, err := New("verifications.db", 0)
	require.NoError(t, err)
	ro.SetStateBox(roBox)
	require.NoError(t, ro.Initialize(ctx))
	defer ro.Shutdown()

	err = ro.Record(ctx, Entry{ID: "b"})
	assert.True(t, errors.Is(err, util.ErrReadOnlyMode))

	entries, err := ro.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
