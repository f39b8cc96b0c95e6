package service

import "errors"

var (
	ErrTaskNotFound         = errors.New("study task not found")
	ErrNoActiveRound        = errors.New("no round in progress")
	ErrRoundFinished        = errors.New("round already answered")
	ErrRoundReplaced        = errors.New("round was replaced before the answer was graded")
	ErrHintInProgress       = errors.New("a hint is already being fetched")
	ErrValidationInProgress = errors.New("an answer is already being graded")
	ErrGenerateInProgress   = errors.New("a new word is already being generated")
)
