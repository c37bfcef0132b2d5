package session

import (
	"context"
	"hash/fnv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"data-analyst/internal/history"
	"data-analyst/internal/models"
	"data-analyst/internal/vectorstore"
)

const sampleCSV = `Product,Price,Units_Sold,Customer_Rating
Widget A,19.99,100,4.5
Widget B,24.99,85,4.2
Widget C,15.50,120,4.8
`

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, 16)
	var norm float64
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(seed%1000)/1000.0 + 0.01
		norm += float64(vec[i]) * float64(vec[i])
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

// scriptedGen stands in for the completion capability: it answers known
// question shapes with query-language expressions and emits the
// insufficient-context sentinel otherwise.
type scriptedGen struct{}

func (scriptedGen) Generate(_ context.Context, _ string, question string) (string, error) {
	q := strings.ToLower(question)
	switch {
	case strings.Contains(q, "column names"):
		return "columns()", nil
	case strings.Contains(q, "average price"):
		return "mean(Price)", nil
	default:
		return models.NeedContextSentinel, nil
	}
}

func newTestSession(t *testing.T) (*Session, string) {
	t.Helper()
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "test.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(sampleCSV), 0o644))

	store := vectorstore.New(filepath.Join(dir, "chroma_db"), "data_profile", 1000, 200, fakeEmbedder{}, zerolog.Nop())
	sess := New(store, scriptedGen{}, nil, 3, zerolog.Nop())
	return sess, csvPath
}

func TestAskBeforeLoad(t *testing.T) {
	sess, _ := newTestSession(t)

	_, err := sess.Ask(context.Background(), "What are the column names?")
	assert.ErrorIs(t, err, vectorstore.ErrStoreNotReady)
	assert.False(t, sess.Ready())
}

func TestEndToEndColumnNames(t *testing.T) {
	sess, csvPath := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, sess.LoadFile(ctx, csvPath))
	require.True(t, sess.Ready())

	answer, err := sess.Ask(ctx, "What are the column names?")
	require.NoError(t, err)
	assert.Equal(t, "**Result:** [Product, Price, Units_Sold, Customer_Rating]", answer)
}

func TestEndToEndAveragePrice(t *testing.T) {
	sess, csvPath := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, sess.LoadFile(ctx, csvPath))

	answer, err := sess.Ask(ctx, "What is the average price?")
	require.NoError(t, err)
	assert.Equal(t, "**Answer:** 20.16", answer)
}

func TestEndToEndInsufficientContext(t *testing.T) {
	sess, csvPath := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, sess.LoadFile(ctx, csvPath))

	answer, err := sess.Ask(ctx, "What is the average discount?")
	require.NoError(t, err)
	assert.Equal(t, models.NotEnoughInfoMessage, answer)
}

func TestLoadFileMetadata(t *testing.T) {
	sess, csvPath := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, sess.LoadFile(ctx, csvPath))

	meta := sess.Metadata()
	assert.Equal(t, "test.csv", meta.FileName)
	assert.Equal(t, 3, meta.NumRows)
	assert.Equal(t, 4, meta.NumColumns)
	assert.Contains(t, sess.ProfileText(), "# PROFILING REPORT FOR: test.csv")
}

func TestReloadReplacesIndex(t *testing.T) {
	sess, csvPath := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, sess.LoadFile(ctx, csvPath))

	otherPath := filepath.Join(filepath.Dir(csvPath), "other.csv")
	require.NoError(t, os.WriteFile(otherPath, []byte("Animal,Legs\ncat,4\nhen,2\n"), 0o644))
	require.NoError(t, sess.LoadFile(ctx, otherPath))

	answer, err := sess.Ask(ctx, "What are the column names?")
	require.NoError(t, err)
	assert.Equal(t, "**Result:** [Animal, Legs]", answer)
	assert.Equal(t, 2, sess.Metadata().NumRows)
}

func TestConversationHistory(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "test.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(sampleCSV), 0o644))

	hist, err := history.Open(filepath.Join(dir, "history.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = hist.Close() })

	store := vectorstore.New(filepath.Join(dir, "chroma_db"), "data_profile", 1000, 200, fakeEmbedder{}, zerolog.Nop())
	sess := New(store, scriptedGen{}, hist, 3, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, sess.LoadFile(ctx, csvPath))
	_, err = sess.Ask(ctx, "What are the column names?")
	require.NoError(t, err)

	msgs, err := sess.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "What are the column names?", msgs[0].Content)
	assert.Equal(t, "assistant", msgs[1].Role)

	// Loading a new file resets the log.
	require.NoError(t, sess.LoadFile(ctx, csvPath))
	msgs, err = sess.History(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestHistoryDisabled(t *testing.T) {
	sess, _ := newTestSession(t)

	msgs, err := sess.History(context.Background(), 5)
	require.NoError(t, err)
	assert.Nil(t, msgs)
}

func TestLoadFileBadInput(t *testing.T) {
	sess, csvPath := newTestSession(t)
	ctx := context.Background()

	err := sess.LoadFile(ctx, csvPath+".nope")
	assert.Error(t, err)
	assert.False(t, sess.Ready())
}
