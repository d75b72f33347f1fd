package analytics

import "testing"

func TestRankLeaderboard(t *testing.T) {
	entries := []ScoreEntry{
		{UserID: "a", GameID: "a1", Score: 1024, Timestamp: 10},
		{UserID: "a", GameID: "a2", Score: 4096, Timestamp: 20},
		{UserID: "b", GameID: "b1", Score: 4096, Timestamp: 5},
		{UserID: "c", GameID: "c1", Score: 512, Timestamp: 1},
		{UserID: "b", GameID: "b2", Score: 4096, Timestamp: 30},
	}
	names := map[string]string{"a": "alice", "b": "bob", "c": "carol"}

	got := RankLeaderboard(entries, names, 0)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	want := []struct {
		user, game string
		score      int
	}{
		{"b", "b1", 4096},
		{"a", "a2", 4096},
		{"c", "c1", 512},
	}
	for i, w := range want {
		if got[i].UserID != w.user || got[i].GameID != w.game || got[i].Score != w.score {
			t.Errorf("entry %d = %+v, want %s/%s/%d", i, got[i], w.user, w.game, w.score)
		}
		if got[i].Rank != i+1 {
			t.Errorf("entry %d rank = %d", i, got[i].Rank)
		}
	}
	if got[0].Username != "bob" {
		t.Errorf("Username = %q, want bob", got[0].Username)
	}

	if top := RankLeaderboard(entries, names, 1); len(top) != 1 || top[0].UserID != "b" {
		t.Errorf("limit 1 = %+v", top)
	}
}

func TestRankLeaderboard_Empty(t *testing.T) {
	if got := RankLeaderboard(nil, nil, 10); len(got) != 0 {
		t.Errorf("got %d entries, want 0", len(got))
	}
}

func TestLifetimeStats(t *testing.T) {
	p := Player{ID: "u1", Username: "alice"}
	entries := []ScoreEntry{
		{Score: 100, Timestamp: 1},
		{Score: 2048, Timestamp: 4},
		{Score: 4096, Timestamp: 3},
		{Score: 512, Timestamp: 2},
		{Score: 2500, Timestamp: 5},
	}

	stats := LifetimeStats(p, entries)
	if stats.GamesPlayed != 5 {
		t.Errorf("GamesPlayed = %d, want 5", stats.GamesPlayed)
	}
	if stats.TotalScore != 9256 {
		t.Errorf("TotalScore = %d, want 9256", stats.TotalScore)
	}
	if stats.BestScore != 4096 {
		t.Errorf("BestScore = %d, want 4096", stats.BestScore)
	}
	if stats.WinCount != 3 {
		t.Errorf("WinCount = %d, want 3", stats.WinCount)
	}
	if stats.WinStreak != 3 {
		t.Errorf("WinStreak = %d, want 3", stats.WinStreak)
	}
	if entries[0].Timestamp != 1 {
		t.Error("LifetimeStats must not reorder its input")
	}
}

func TestSortNewestFirst(t *testing.T) {
	entries := []ScoreEntry{{GameID: "old", Timestamp: 1}, {GameID: "new", Timestamp: 9}, {GameID: "mid", Timestamp: 5}}
	SortNewestFirst(entries)
	if entries[0].GameID != "new" || entries[2].GameID != "old" {
		t.Errorf("order = %s %s %s", entries[0].GameID, entries[1].GameID, entries[2].GameID)
	}
}
