// Package state implements the application state machine behind the reader.
//
// # Overview
//
// Machine owns the selected class, the display mode and the quiz axis. All
// changes go through its transition methods; the UI reads the result back
// through accessors and never mutates state directly.
//
// # Display Modes
//
// The display mode is a tagged variant, so flashcards and an open chapter
// cannot both hold:
//
//	EmptyMode                  nothing to show (class has no flashcards)
//	FlashcardsMode{ClassID}    carousel rotating for the selected class
//	ChapterMode{Chapter}       a poem is open
//
// The quiz axis (QuizOpen) is orthogonal and only ever true in ChapterMode.
// The reading sub-state of an open chapter is derived from the narration
// controller rather than stored:
//
//	ReadingInactive   no clip requested or playing
//	ReadingLine(i)    a single line is being read
//	ReadingWholePoem  the whole poem is being read
//
// # Transitions
//
//	Bootstrap       restore class from session (or first class), start flashcards
//	SelectClass     persist class, clear chapter, stop narration, start flashcards
//	OpenChapter     stop carousel, stop narration, enter ChapterMode
//	CloseChapter    stop narration, return to flashcards
//	NavigateSibling open the neighbouring chapter in sorted order
//	LaunchQuiz      write quiz hand-off keys, open quiz
//	CloseQuiz       close quiz, reload completion from session
//
// Unknown class or chapter ids return ErrInvalidSelection and leave the
// state untouched. LaunchQuiz returns *QuizUnavailableError before making
// any session writes.
//
// # Flashcard Ticks
//
// Carousel timers fire on their own goroutine. The UI forwards the tick's
// generation to FlashcardTick on its loop; a tick that lands after a chapter
// opened stops the carousel instead of advancing it, and a tick from an
// older timer is ignored.
//
// # Session Hand-off
//
// The embedded quiz runner reads selectedClassId, currentChapterId and
// currentChapterData from the session store and writes completedChapters.
// Machine does not observe those writes until CloseQuiz reloads the tracker.
//
// # Concurrency
//
// Machine is not safe for concurrent use. The collaborators it drives
// (carousel, narration controller) are, since their timers and network
// completions run on other goroutines.
package state
