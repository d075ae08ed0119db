package store

import (
	"time"

	"github.com/google/uuid"
)

const timeLayout = time.RFC3339Nano

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseUUID(s string, out *uuid.UUID) error {
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	*out = id
	return nil
}
