// Package dashboard aggregates saved quiz results for the teacher view:
// filtering, headline summary, per-chapter averages, the class × chapter
// heatmap and CSV export. Everything except Store is a pure function of
// the record list.
package dashboard
