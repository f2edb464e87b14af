package model

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeepsKeyOrderAndAddsCreatedDate(t *testing.T) {
	r := Parse(json.RawMessage(`{"id":"9","text":"héllo","public_metrics":{"reply_count":2}}`))
	require.NoError(t, r.Err())

	r.SetCreatedDate("2024-03-01")
	r.SetCreatedDate("2024-03-01")

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"9","text":"héllo","public_metrics":{"reply_count":2},"created_date":"2024-03-01"}`, string(b))

	d, ok := r.CreatedDate()
	assert.True(t, ok)
	assert.Equal(t, "2024-03-01", d)
}

func TestTextAccessor(t *testing.T) {
	text, err := Parse(json.RawMessage(`{"id":1}`)).Text()
	require.NoError(t, err)
	assert.Equal(t, "", text)

	_, err = Parse(json.RawMessage(`{"text":null}`)).Text()
	assert.ErrorIs(t, err, ErrTextNotString)

	_, err = Parse(json.RawMessage(`{"text":42}`)).Text()
	assert.ErrorIs(t, err, ErrTextNotString)

	_, err = Parse(json.RawMessage(`["not","an","object"]`)).Text()
	assert.ErrorIs(t, err, ErrNotObject)
}

func TestMetricValues(t *testing.T) {
	r := Parse(json.RawMessage(`{"public_metrics":{"reply_count":3,"like_count":"7","quote_count":null,"retweet_count":2.0,"bookmark_count":[1]}}`))

	n, known, err := r.Metric(ReplyCount)
	require.NoError(t, err)
	assert.True(t, known)
	assert.EqualValues(t, 3, n)

	n, _, err = r.Metric(LikeCount)
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)

	n, _, err = r.Metric(RetweetCount)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, known, err = r.Metric(QuoteCount)
	require.NoError(t, err)
	assert.False(t, known)

	_, known, err = r.Metric(ImpressionCount)
	require.NoError(t, err)
	assert.False(t, known)

	_, _, err = r.Metric(BookmarkCount)
	assert.True(t, errors.Is(err, ErrBadMetric))
	assert.EqualValues(t, 0, r.MetricOrZero(BookmarkCount))

	assert.Equal(t, "3", r.MetricDisplay(ReplyCount))
	assert.Equal(t, Unknown, r.MetricDisplay(QuoteCount))
}

func TestMissingPublicMetrics(t *testing.T) {
	r := Parse(json.RawMessage(`{"text":"x","public_metrics":null}`))
	n, known, err := r.Metric(LikeCount)
	require.NoError(t, err)
	assert.False(t, known)
	assert.Zero(t, n)

	r = Parse(json.RawMessage(`{"text":"x","public_metrics":"lots"}`))
	_, _, err = r.Metric(LikeCount)
	assert.ErrorIs(t, err, ErrBadMetric)
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric(" like_count ")
	require.NoError(t, err)
	assert.Equal(t, LikeCount, m)
	assert.Equal(t, "Likes", m.Label())

	_, err = ParseMetric("follower_count")
	assert.Error(t, err)
}

func TestHugeFloatMetricSaturates(t *testing.T) {
	r := Parse(json.RawMessage(`{"public_metrics":{"like_count":1e20,"reply_count":-1e20,"quote_count":12.9}}`))

	n, known, err := r.Metric(LikeCount)
	require.NoError(t, err)
	assert.True(t, known)
	assert.EqualValues(t, int64(math.MaxInt64), n)

	n, _, err = r.Metric(ReplyCount)
	require.NoError(t, err)
	assert.EqualValues(t, int64(math.MinInt64), n)

	n, _, err = r.Metric(QuoteCount)
	require.NoError(t, err)
	assert.EqualValues(t, 12, n)
}

func TestIDAndPublicMetrics(t *testing.T) {
	assert.Equal(t, "abc", Parse(json.RawMessage(`{"id":"abc"}`)).ID())
	assert.Equal(t, "1234567890123456789", Parse(json.RawMessage(`{"id":1234567890123456789}`)).ID())
	assert.Equal(t, "", Parse(json.RawMessage(`{"id":null}`)).ID())

	r := Parse(json.RawMessage(`{"public_metrics":{"like_count":1}}`))
	assert.JSONEq(t, `{"like_count":1}`, string(r.PublicMetrics()))
	assert.Nil(t, Parse(json.RawMessage(`{}`)).PublicMetrics())
}
