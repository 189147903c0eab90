package translate

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/coursekit/internal/course"
	"github.com/abhisek/coursekit/internal/llm"
	"github.com/abhisek/coursekit/internal/store"
)

// fakeTranslator prefixes text and counts calls.
type fakeTranslator struct {
	calls  []string
	failOn string
}

func (f *fakeTranslator) Translate(_ context.Context, text, target string) (string, error) {
	f.calls = append(f.calls, text)
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return "", errors.New("quota exceeded")
	}
	return target + ":" + text, nil
}

func TestGoogle(t *testing.T) {
	var gotFrom, gotTo string
	g := &Google{call: func(text, from, to string) (string, error) {
		gotFrom, gotTo = from, to
		return " नमस्ते ", nil
	}}

	out, err := g.Translate(context.Background(), "Hello", "hi")
	require.NoError(t, err)
	assert.Equal(t, "नमस्ते", out)
	assert.Equal(t, "en", gotFrom)
	assert.Equal(t, "hi", gotTo)

	out, err = g.Translate(context.Background(), "   ", "hi")
	require.NoError(t, err)
	assert.Empty(t, out)

	g.call = func(string, string, string) (string, error) { return "", errors.New("429") }
	_, err = g.Translate(context.Background(), "Hello", "hi")
	assert.ErrorContains(t, err, "google translate: 429")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.Translate(ctx, "Hello", "hi")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLLM(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"hi":"लोड बोर्ड "}`)})
	tr := NewLLM(mock)

	out, err := tr.Translate(context.Background(), "Load board", "hi")
	require.NoError(t, err)
	assert.Equal(t, "लोड बोर्ड", out)

	require.Equal(t, 1, mock.CallCount())
	req := mock.Calls[0]
	assert.Equal(t, HindiSchema, req.Schema)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "Load board", req.Messages[0].Content)
	assert.Contains(t, req.System, "Hindi")

	_, err = tr.Translate(context.Background(), "Load board", "fr")
	assert.ErrorContains(t, err, "unsupported language")

	_, err = tr.Translate(context.Background(), "Load board", "hi")
	assert.ErrorContains(t, err, "llm translate")
}

func TestCached(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	inner := &fakeTranslator{}
	c := NewCached(inner, kv)

	out, err := c.Translate(ctx, "Rate con", "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi:Rate con", out)

	out, err = c.Translate(ctx, "Rate con", "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi:Rate con", out)
	assert.Len(t, inner.calls, 1)

	v, ok, err := kv.Get(ctx, CacheKey("hi", "Rate con"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hi:Rate con", v)

	inner.failOn = "Detention"
	_, err = c.Translate(ctx, "Detention", "hi")
	assert.Error(t, err)
	keys, err := kv.Keys(ctx, "tr_")
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestCacheKey(t *testing.T) {
	k := CacheKey("hi", "abc")
	assert.Equal(t, "tr_hi_a9993e364706816aba3e25717850c26c9cd0d89d", k)
	assert.NotEqual(t, k, CacheKey("hi", "abd"))
}

const partialCourse = `
id: demo
title: Demo
format: v1.0
weeks:
  - id: 1
    title: Week One
    days:
      - id: 1
        title: Day One
        topics:
          - id: 1
            title: Load boards
            title_hi: लोड बोर्ड
            body_en: Find loads.
          - id: 2
            title: Rates
            body_en: Negotiate.
            body_hi: मोलभाव करें।
`

func TestFillCourse(t *testing.T) {
	c, err := course.Parse([]byte(partialCourse), "demo.yaml")
	require.NoError(t, err)
	require.Equal(t, 2, c.MissingHindi())

	tr := &fakeTranslator{}
	var ticks [][2]int
	n, err := FillCourse(context.Background(), c, tr, func(done, total int) {
		ticks = append(ticks, [2]int{done, total})
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, ticks)
	assert.Equal(t, []string{"Find loads.", "Rates"}, tr.calls)

	topics := c.Weeks[0].Days[0].Topics
	assert.Equal(t, "लोड बोर्ड", topics[0].TitleHI)
	assert.Equal(t, "hi:Find loads.", topics[0].BodyHI)
	assert.Equal(t, "hi:Rates", topics[1].TitleHI)
	assert.Equal(t, "मोलभाव करें।", topics[1].BodyHI)
	assert.Zero(t, c.MissingHindi())
}

func TestFillCourseStopsOnError(t *testing.T) {
	c, err := course.Parse([]byte(partialCourse), "demo.yaml")
	require.NoError(t, err)

	n, err := FillCourse(context.Background(), c, &fakeTranslator{failOn: "Rates"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "week 1 day 1 topic 2 title")
	assert.Equal(t, 1, n)
	assert.Equal(t, "hi:Find loads.", c.Weeks[0].Days[0].Topics[0].BodyHI)
}
