package scoring

import "sort"

const (
	// FeedCapacity is the number of kill feed entries kept.
	FeedCapacity = 5
	// FeedTTL is how many ticks a kill feed entry stays visible.
	FeedTTL = 300
	// AnnouncementTTL is how many ticks an announcement stays visible.
	AnnouncementTTL = 180
	// BountyThreshold is the kill count at which the leader becomes a bounty.
	BountyThreshold = 3
	// LeaderboardSize is the number of standings reported.
	LeaderboardSize = 5
	// bountyExtraKills is added on top of the regular kill when the bounty
	// target falls, for a net gain of three.
	bountyExtraKills = 2
)

// Synthetic killer names for environmental deaths.
const (
	KillerZone      = "ZONE"
	KillerAirstrike = "AIRSTRIKE"
)

// Human score awards.
const (
	ScoreKill    = 200
	ScoreBounty  = 1500
	ScoreRevenge = 500
)

// Announcement texts.
const (
	AnnounceBounty  = "BOUNTY CLAIMED!"
	AnnounceRevenge = "REVENGE!"
)

// FeedEntry is one line of the kill feed.
type FeedEntry struct {
	Killer string `json:"killer"`
	Victim string `json:"victim"`
	Tick   uint64 `json:"tick"`
}

// Announcement is a short-lived banner.
type Announcement struct {
	Text  string `json:"text"`
	Color string `json:"color"`
	Tick  uint64 `json:"tick"`
}

// KillResult summarises the bonuses triggered by a credited kill.
type KillResult struct {
	Kills   int
	Bounty  bool
	Revenge bool
}

// Points returns the human score for a kill. A bounty award replaces the
// base award; revenge stacks on either.
func (r KillResult) Points() int {
	points := ScoreKill
	if r.Bounty {
		points = ScoreBounty
	}
	if r.Revenge {
		points += ScoreRevenge
	}
	return points
}

// Ledger tracks attribution state for a match.
type Ledger struct {
	order         map[string]int
	ids           []string
	feed          []FeedEntry
	kills         map[string]int
	bounty        string
	revenge       map[string]string
	announcements []Announcement
}

// NewLedger returns an empty ledger. Ties between equal kill counts resolve in
// the order of ids.
func NewLedger(ids []string) *Ledger {
	l := &Ledger{
		order:   make(map[string]int, len(ids)),
		kills:   make(map[string]int, len(ids)),
		revenge: make(map[string]string),
	}
	for _, id := range ids {
		l.register(id)
	}
	return l
}

func (l *Ledger) register(id string) {
	if _, ok := l.order[id]; ok {
		return
	}
	l.order[id] = len(l.ids)
	l.ids = append(l.ids, id)
}

// RecordKill credits shooter with killing victim at tick.
func (l *Ledger) RecordKill(tick uint64, shooterID, shooterName, victimID, victimName string) KillResult {
	if l == nil {
		return KillResult{}
	}
	l.register(shooterID)
	l.register(victimID)
	l.pushFeed(FeedEntry{Killer: shooterName, Victim: victimName, Tick: tick})

	l.kills[shooterID]++
	result := KillResult{}

	// The leader is re-evaluated before the claim check, so a shooter who
	// overtakes the bounty target with this kill takes the bounty instead.
	if leader, kills := l.leader(); kills >= BountyThreshold {
		l.bounty = leader
	}

	if victimID == l.bounty && shooterID != victimID {
		l.kills[shooterID] += bountyExtraKills
		l.announce(tick, AnnounceBounty, "#ffd700")
		l.bounty = ""
		result.Bounty = true
	}

	l.revenge[victimID] = shooterID
	if l.revenge[shooterID] == victimID {
		l.announce(tick, AnnounceRevenge, "#ff4444")
		delete(l.revenge, shooterID)
		result.Revenge = true
	}

	result.Kills = l.kills[shooterID]
	return result
}

// RecordEnvironmentalKill adds a feed entry without touching kill counts,
// bounty or revenge.
func (l *Ledger) RecordEnvironmentalKill(tick uint64, killer, victimName string) {
	if l == nil {
		return
	}
	l.pushFeed(FeedEntry{Killer: killer, Victim: victimName, Tick: tick})
}

// Expire drops feed entries and announcements older than their TTL.
func (l *Ledger) Expire(tick uint64) {
	if l == nil {
		return
	}
	feed := l.feed[:0]
	for _, entry := range l.feed {
		if tick-entry.Tick < FeedTTL {
			feed = append(feed, entry)
		}
	}
	l.feed = feed

	announcements := l.announcements[:0]
	for _, a := range l.announcements {
		if tick-a.Tick < AnnouncementTTL {
			announcements = append(announcements, a)
		}
	}
	l.announcements = announcements
}

func (l *Ledger) pushFeed(entry FeedEntry) {
	l.feed = append([]FeedEntry{entry}, l.feed...)
	if len(l.feed) > FeedCapacity {
		l.feed = l.feed[:FeedCapacity]
	}
}

func (l *Ledger) announce(tick uint64, text, color string) {
	l.announcements = append(l.announcements, Announcement{Text: text, Color: color, Tick: tick})
}

func (l *Ledger) leader() (string, int) {
	best := ""
	max := 0
	for _, id := range l.ids {
		if kills := l.kills[id]; kills > max {
			best = id
			max = kills
		}
	}
	return best, max
}

// Kills returns the credited kill count of id.
func (l *Ledger) Kills(id string) int {
	if l == nil {
		return 0
	}
	return l.kills[id]
}

// Bounty returns the current bounty target, or "" when there is none.
func (l *Ledger) Bounty() string {
	if l == nil {
		return ""
	}
	return l.bounty
}

// RevengeHolder returns the recorded killer of victimID.
func (l *Ledger) RevengeHolder(victimID string) (string, bool) {
	if l == nil {
		return "", false
	}
	killer, ok := l.revenge[victimID]
	return killer, ok
}

// Feed returns the visible kill feed, newest first.
func (l *Ledger) Feed() []FeedEntry {
	if l == nil {
		return nil
	}
	return append([]FeedEntry(nil), l.feed...)
}

// Announcements returns the active announcements, oldest first.
func (l *Ledger) Announcements() []Announcement {
	if l == nil {
		return nil
	}
	return append([]Announcement(nil), l.announcements...)
}

// Contender is a roster entry considered for the leaderboard.
type Contender struct {
	ID         string
	Name       string
	Eliminated bool
}

// Standing is one leaderboard row.
type Standing struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Kills int    `json:"kills"`
}

// Leaderboard returns the top non-eliminated contenders by kills. Contenders
// must be supplied in roster order, which breaks ties.
func (l *Ledger) Leaderboard(contenders []Contender) []Standing {
	standings := make([]Standing, 0, len(contenders))
	for _, c := range contenders {
		if c.Eliminated {
			continue
		}
		standings = append(standings, Standing{ID: c.ID, Name: c.Name, Kills: l.Kills(c.ID)})
	}
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Kills > standings[j].Kills
	})
	if len(standings) > LeaderboardSize {
		standings = standings[:LeaderboardSize]
	}
	return standings
}
