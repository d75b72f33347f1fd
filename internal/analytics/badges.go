package analytics

type BadgeID string

const (
	BadgeWinner       BadgeID = "winner"
	BadgeOverachiever BadgeID = "overachiever"
	BadgeGrandmaster  BadgeID = "grandmaster"
	BadgeUnstoppable  BadgeID = "unstoppable"
	BadgeVeteran      BadgeID = "veteran"
	BadgeMarathoner   BadgeID = "marathoner"
	BadgeHighRoller   BadgeID = "high_roller"
)

// WinningScore is the score that counts a game as won.
const WinningScore = 2048

type Badge struct {
	ID          BadgeID
	Name        string
	Description string
	Icon        string
}

var AllBadges = map[BadgeID]Badge{
	BadgeWinner:       {ID: BadgeWinner, Name: "Winner", Description: "Scored 2048 or more in a single game", Icon: "🏆"},
	BadgeOverachiever: {ID: BadgeOverachiever, Name: "Overachiever", Description: "Scored 4096 or more in a single game", Icon: "🚀"},
	BadgeGrandmaster:  {ID: BadgeGrandmaster, Name: "Grandmaster", Description: "Scored 20000 or more in a single game", Icon: "👑"},
	BadgeUnstoppable:  {ID: BadgeUnstoppable, Name: "Unstoppable", Description: "Won 3 games in a row", Icon: "🔥"},
	BadgeVeteran:      {ID: BadgeVeteran, Name: "Veteran", Description: "Played 10+ games", Icon: "🏅"},
	BadgeMarathoner:   {ID: BadgeMarathoner, Name: "Marathoner", Description: "Played 100+ games", Icon: "🏃"},
	BadgeHighRoller:   {ID: BadgeHighRoller, Name: "High Roller", Description: "100000+ points across all games", Icon: "💰"},
}

// EvaluateGameBadges checks which badges a single score earns.
func EvaluateGameBadges(entry ScoreEntry) []Badge {
	var earned []Badge

	if entry.Score >= WinningScore {
		earned = append(earned, AllBadges[BadgeWinner])
	}
	if entry.Score >= 2*WinningScore {
		earned = append(earned, AllBadges[BadgeOverachiever])
	}
	if entry.Score >= 20000 {
		earned = append(earned, AllBadges[BadgeGrandmaster])
	}

	return earned
}

// EvaluateLifetimeBadges checks which badges a player earned across their career.
func EvaluateLifetimeBadges(stats PlayerLifetimeStats) []Badge {
	var earned []Badge

	if stats.WinStreak >= 3 {
		earned = append(earned, AllBadges[BadgeUnstoppable])
	}

	if stats.GamesPlayed >= 10 {
		earned = append(earned, AllBadges[BadgeVeteran])
	}
	if stats.GamesPlayed >= 100 {
		earned = append(earned, AllBadges[BadgeMarathoner])
	}

	if stats.TotalScore >= 100000 {
		earned = append(earned, AllBadges[BadgeHighRoller])
	}

	return earned
}
