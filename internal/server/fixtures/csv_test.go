package fixtures

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func TestParseArchive_Coercion(t *testing.T) {
	data := []byte("code,event,finished,id,kickoff_time,team_a,team_a_score,team_h,team_h_score\n" +
		"2367538, 4 ,True,31,2023-09-02T14:00:00Z,3,1,14,3\n" +
		"\n" +
		"2367539,4,false,32,2023-09-02T16:30:00Z,7,,1,\n" +
		"2367540,x,TRUE,abc,,2.0,-1,9,2\n")

	rows, err := ParseArchive(data)
	require.NoError(t, err)
	require.Len(t, rows, 3, "blank lines are skipped")

	first := rows[0]
	assert.Equal(t, intp(31), first.ID)
	assert.Equal(t, intp(4), first.Event, "cells are trimmed")
	assert.True(t, first.Finished, "finished accepts any case of true")
	assert.Equal(t, intp(14), first.TeamH)
	assert.Equal(t, intp(3), first.TeamHScore)
	assert.Equal(t, "2023-09-02T14:00:00Z", first.KickoffTime)
	assert.Equal(t, "2367538", first.Other["code"])

	second := rows[1]
	assert.False(t, second.Finished)
	assert.Nil(t, second.TeamAScore, "empty integers become nil")
	assert.Nil(t, second.TeamHScore)

	third := rows[2]
	assert.Nil(t, third.Event, "non-numeric integers become nil")
	assert.Nil(t, third.ID)
	assert.Equal(t, intp(2), third.TeamA, "leading digits are kept")
	assert.Equal(t, intp(-1), third.TeamAScore)
	assert.True(t, third.Finished)
}

func TestParseArchive_Empty(t *testing.T) {
	rows, err := ParseArchive(nil)
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = ParseArchive([]byte("id,event,finished\n"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestParseArchive_ByteOrderMark(t *testing.T) {
	rows, err := ParseArchive([]byte("\ufeffid,event\n5,1\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, intp(5), rows[0].ID)
}

func TestParseArchive_Malformed(t *testing.T) {
	_, err := ParseArchive([]byte("id,event\n\"unterminated,1\n"))
	require.Error(t, err)
}

func TestParseLeadingInt(t *testing.T) {
	tests := map[string]*int{
		"12":   intp(12),
		"+3":   intp(3),
		"-4":   intp(-4),
		"7.0":  intp(7),
		"8abc": intp(8),
		"":     nil,
		"-":    nil,
		"abc":  nil,
		"null": nil,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLeadingInt(in), "input %q", in)
	}
}
