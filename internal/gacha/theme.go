package gacha

// Theme identifies one of the fixed item themes.
type Theme string

// Known themes.
const (
	ThemeFantasy Theme = "fantasy"
	ThemeSpace   Theme = "space"
	ThemeMeme    Theme = "meme"
	ThemeCrypto  Theme = "crypto"
	ThemeNature  Theme = "nature"
	ThemeTech    Theme = "tech"
)

// ThemeOrder is the canonical theme order used for uniform sampling
// and display.
var ThemeOrder = []Theme{
	ThemeFantasy,
	ThemeSpace,
	ThemeMeme,
	ThemeCrypto,
	ThemeNature,
	ThemeTech,
}

// ThemeConfig holds the word lists an item's name and description
// are composed from.
type ThemeConfig struct {
	Name         string
	Prefixes     []string
	Suffixes     []string
	Descriptions []string
}

// Themes is the closed theme catalog. Loaded once, never mutated at runtime.
var Themes = map[Theme]ThemeConfig{
	ThemeFantasy: {
		Name:     "🧙 Фэнтези",
		Prefixes: []string{"Магический", "Зачарованный", "Древний", "Священный", "Тёмный", "Светлый", "Эльфийский", "Драконий"},
		Suffixes: []string{"меч", "посох", "клинок", "щит", "артефакт", "амулет", "кольцо", "книга", "свиток", "кристалл"},
		Descriptions: []string{"Испускает мягкое свечение", "Покрыт древними рунами", "Хранит силу веков", "Пульсирует магией"},
	},
	ThemeSpace: {
		Name:     "🚀 Космос",
		Prefixes: []string{"Квантовый", "Звёздный", "Галактический", "Планетарный", "Нейтронный", "Плазменный", "Космический", "Интергалактический"},
		Suffixes: []string{"бластер", "щит", "двигатель", "сканер", "процессор", "кристалл", "артефакт", "реактор", "телепорт", "зонд"},
		Descriptions: []string{"Светится неоновым светом", "Испускает радиацию", "Содержит энергию звезды", "Технология будущего"},
	},
	ThemeMeme: {
		Name:     "😂 Мемы",
		Prefixes: []string{"Легендарный", "Эпичный", "Мемный", "Вирусный", "Культовый", "Иконичный", "Бессмертный", "Великий"},
		Suffixes: []string{"мем", "карточка", "артефакт", "реликвия", "легенда", "икона", "шедевр", "классика", "хит", "феномен"},
		Descriptions: []string{"Вызывает смех", "Легендарный в интернете", "Вирусный контент", "Культовый мем"},
	},
	ThemeCrypto: {
		Name:     "₿ Крипто",
		Prefixes: []string{"Блокчейн", "Децентрализованный", "NFT", "Крипто", "Токен", "Майнинг", "Стейкинг", "DeFi"},
		Suffixes: []string{"токен", "коин", "NFT", "смарт-контракт", "блок", "майнер", "кошелёк", "протокол", "дао", "стейк"},
		Descriptions: []string{"Хранится в блокчейне", "Децентрализован", "Уникальный токен", "Цифровой актив"},
	},
	ThemeNature: {
		Name:     "🌿 Природа",
		Prefixes: []string{"Лесной", "Цветочный", "Каменный", "Водный", "Огненный", "Ледяной", "Ветреный", "Земной"},
		Suffixes: []string{"лист", "цветок", "камень", "кристалл", "семя", "корень", "плод", "ветка", "росток", "эссенция"},
		Descriptions: []string{"Пахнет свежестью", "Пульсирует жизнью", "Связан с природой", "Хранит энергию земли"},
	},
	ThemeTech: {
		Name:     "💻 Техно",
		Prefixes: []string{"Кибер", "Нейро", "Виртуальный", "Цифровой", "ИИ", "Квантовый", "Нано", "Хакерский"},
		Suffixes: []string{"чип", "процессор", "вирус", "программа", "алгоритм", "данные", "сервер", "интерфейс", "код", "система"},
		Descriptions: []string{"Светится RGB", "Запускает алгоритмы", "Цифровая реальность", "Искусственный интеллект"},
	},
}

// IsValid reports whether t is one of the known themes.
func (t Theme) IsValid() bool {
	_, ok := Themes[t]
	return ok
}

// DisplayName returns the theme's display name, or the raw value for
// an unknown theme.
func (t Theme) DisplayName() string {
	if cfg, ok := Themes[t]; ok {
		return cfg.Name
	}
	return string(t)
}
