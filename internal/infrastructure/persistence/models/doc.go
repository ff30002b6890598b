// Package models holds the gorm persistence models. Every model converts to
// and from its domain entity through ToDomain / FromDomain; JSON columns are
// kept as strings and decoded on the way out.
package models
