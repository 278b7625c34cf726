// Package flashcards builds per-class knowledge-byte decks and rotates them
// on a timer while no chapter is open.
//
// BuildDecks is pure. Carousel owns the single timer: Start always cancels
// the previous timer before arming a new one, and every timer carries a
// generation so stale ticks can be discarded by Advance.
package flashcards
