package flashcards

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/five82/kavita/internal/catalog"
)

// MaxDeckSize caps the number of cards per class.
const MaxDeckSize = 10

//go:embed data/curated.json
var curatedFS embed.FS

// Card is one knowledge byte shown in the carousel.
type Card struct {
	ClassID     string `json:"classId"`
	ClassName   string `json:"className"`
	ChapterID   string `json:"chapterId,omitempty"`
	ChapterName string `json:"chapterName"`
	Text        string `json:"text"`
}

// CuratedCard is a hand-written card before it is bound to a class.
type CuratedCard struct {
	ChapterID   string `json:"chapterId"`
	ChapterName string `json:"chapterName"`
	Text        string `json:"text"`
}

// Curated maps class id to its curated cards.
type Curated map[string][]CuratedCard

// DefaultCurated loads the curated cards shipped with the binary.
func DefaultCurated() (Curated, error) {
	data, err := curatedFS.ReadFile("data/curated.json")
	if err != nil {
		return nil, fmt.Errorf("read curated cards: %w", err)
	}
	var cur Curated
	if err := json.Unmarshal(data, &cur); err != nil {
		return nil, fmt.Errorf("decode curated cards: %w", err)
	}
	return cur, nil
}

// Decks maps class id to its ordered cards.
type Decks map[string][]Card

// BuildDecks derives one deck per catalog class. Classes without curated
// cards get an empty deck.
func BuildDecks(cat *catalog.Catalog, curated Curated) Decks {
	decks := make(Decks, cat.Len())
	for _, cls := range cat.Classes() {
		cards := curated[cls.ID]
		if len(cards) > MaxDeckSize {
			cards = cards[:MaxDeckSize]
		}
		deck := make([]Card, 0, len(cards))
		for _, c := range cards {
			deck = append(deck, Card{
				ClassID:     cls.ID,
				ClassName:   cls.Name,
				ChapterID:   c.ChapterID,
				ChapterName: c.ChapterName,
				Text:        c.Text,
			})
		}
		decks[cls.ID] = deck
	}
	return decks
}
