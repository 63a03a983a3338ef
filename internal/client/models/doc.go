// Package models defines client-side data models used by the SubTrack CLI.
package models
