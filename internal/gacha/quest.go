package gacha

// QuestType enumerates the trackable player actions daily quests count.
type QuestType string

// Quest types.
const (
	QuestDailyPull        QuestType = "daily_pull"
	QuestCollectRare      QuestType = "collect_rare"
	QuestCollectEpic      QuestType = "collect_epic"
	QuestCollectLegendary QuestType = "collect_legendary"
	QuestCollectionSize   QuestType = "collection_size"
	QuestThemeComplete    QuestType = "theme_complete"
)

// QuestTemplate is a daily quest blueprint: the action to count, the target
// and the reward.
type QuestTemplate struct {
	Type        QuestType
	Target      int
	Description string
	RewardGold  int64
	RewardStars int64
}

// QuestTemplates is the full template pool daily quests are drawn from.
var QuestTemplates = []QuestTemplate{
	{Type: QuestDailyPull, Target: 1, Description: "Сделай 1 бесплатный тяг", RewardGold: 100, RewardStars: 0},
	{Type: QuestDailyPull, Target: 3, Description: "Сделай 3 бесплатных тяга", RewardGold: 300, RewardStars: 2},
	{Type: QuestCollectRare, Target: 1, Description: "Получи 1 редкий предмет", RewardGold: 200, RewardStars: 1},
	{Type: QuestCollectEpic, Target: 1, Description: "Получи 1 эпический предмет", RewardGold: 500, RewardStars: 3},
	{Type: QuestCollectLegendary, Target: 1, Description: "Получи 1 легендарный предмет", RewardGold: 1000, RewardStars: 10},
	{Type: QuestCollectionSize, Target: 10, Description: "Собери 10 уникальных предметов", RewardGold: 400, RewardStars: 5},
	{Type: QuestCollectionSize, Target: 50, Description: "Собери 50 уникальных предметов", RewardGold: 2000, RewardStars: 20},
	{Type: QuestThemeComplete, Target: len(ThemeOrder), Description: "Собери предмет из каждой темы", RewardGold: 800, RewardStars: 8},
}

// SelectDailyQuests picks n quest templates for a player's day. The pool is
// shuffled and templates are taken greedily while their type has not been
// chosen yet, so the selection carries the maximum number of distinct types.
// Only when the pool has fewer distinct types than n is the remainder padded
// with uniform random picks, where types may repeat.
func (g *Generator) SelectDailyQuests(n int) []QuestTemplate {
	g.mu.Lock()
	defer g.mu.Unlock()

	shuffled := make([]QuestTemplate, len(QuestTemplates))
	copy(shuffled, QuestTemplates)
	g.rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	quests := make([]QuestTemplate, 0, n)
	seen := make(map[QuestType]bool)
	for _, tpl := range shuffled {
		if len(quests) >= n {
			break
		}
		if !seen[tpl.Type] {
			quests = append(quests, tpl)
			seen[tpl.Type] = true
		}
	}

	for len(quests) < n {
		quests = append(quests, QuestTemplates[g.rnd.Intn(len(QuestTemplates))])
	}

	return quests
}
