// Package ui provides the Bubble Tea terminal interface for Kavita.
//
// The root Model renders the state.Machine: a sidebar with the selected
// class, its completion bar and the sorted chapter list, and a main panel
// showing either the flashcard carousel or the open poem with a line
// cursor. Reading aloud, the embedded quiz, the teacher dashboard and the
// client log each have their own view.
//
// Background work reaches the model as messages. Carousel timer ticks and
// narration changes arrive on channels supplied through Options; blocking
// calls (narration requests, result uploads, CSV export, log reads) run as
// tea.Cmds and report back with a message.
//
// # Key Bindings
//
//   - c/C: Next or previous class
//   - j/k, enter: Move through chapters and open one
//   - space: Read the current line aloud
//   - p: Read the whole poem, or stop reading
//   - [ and ]: Previous or next chapter
//   - t: Take the chapter quiz
//   - esc: Close the chapter or leave a view
//   - .: Toggle the sidebar
//   - D: Teacher dashboard (c/s/n filters, 0 clears, e exports CSV)
//   - L: Client log
//   - T: Cycle theme
//   - ?: Help
//   - q or ctrl+c: Quit
package ui
