// Package marketplace holds the vocabulary shared by every marketplace integration:
// marketplace codes, job actions and the per-action defaults catalog.
package marketplace
