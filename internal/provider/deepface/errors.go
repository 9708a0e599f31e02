package deepface

import "errors"

var (
	ErrDeepFaceUnavailable = errors.New("deepface service unavailable")
	ErrInvalidResponse     = errors.New("invalid response from deepface")
	ErrNoFaceInResponse    = errors.New("no matching face in deepface response")
	ErrEmptyEmbedding      = errors.New("deepface returned an empty embedding")
)
