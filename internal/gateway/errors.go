package gateway

import (
	"errors"
	"fmt"
)

// Op names a gateway operation in errors, logs and metrics
type Op string

const (
	OpGenerateWord   Op = "generate_word"
	OpHint           Op = "hint"
	OpValidateAnswer Op = "validate_answer"
	OpPronounce      Op = "pronounce"
)

// Kind classifies a GenerationError
type Kind string

const (
	KindRemote       Kind = "remote"
	KindContentShape Kind = "content-shape"
)

var (
	ErrRemote           = errors.New("ai provider request failed")
	ErrContentShape     = errors.New("ai provider returned malformed content")
	ErrAudioUnavailable = errors.New("no audio data returned")
)

// GenerationError reports a failed call to the AI provider
type GenerationError struct {
	Op   Op
	Kind Kind
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool {
	switch target {
	case ErrRemote:
		return e.Kind == KindRemote
	case ErrContentShape:
		return e.Kind == KindContentShape
	}
	return false
}

// AudioUnavailableError reports a speech response without usable audio
type AudioUnavailableError struct {
	Word string
	Err  error
}

func (e *AudioUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no audio data returned for %q: %v", e.Word, e.Err)
	}
	return fmt.Sprintf("no audio data returned for %q", e.Word)
}

func (e *AudioUnavailableError) Unwrap() error { return e.Err }

func (e *AudioUnavailableError) Is(target error) bool {
	return target == ErrAudioUnavailable
}

func remoteErr(op Op, err error) error {
	return &GenerationError{Op: op, Kind: KindRemote, Err: err}
}

func shapeErr(op Op, format string, args ...any) error {
	return &GenerationError{Op: op, Kind: KindContentShape, Err: fmt.Errorf(format, args...)}
}
