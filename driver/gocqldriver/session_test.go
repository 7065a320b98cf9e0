package gocqldriver

import (
	"errors"
	"testing"

	gocql "github.com/apache/cassandra-gocql-driver/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/cqltable/driver"
)

type requestError struct {
	code int
}

func (e requestError) Code() int       { return e.code }
func (e requestError) Message() string { return "rejected" }
func (e requestError) Error() string   { return "rejected" }

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		invalid bool
	}{
		{"nil", nil, false},
		{"invalid", requestError{code: gocql.ErrCodeInvalid}, true},
		{"syntax", requestError{code: gocql.ErrCodeSyntax}, true},
		{"unavailable", requestError{code: gocql.ErrCodeUnavailable}, false},
		{"plain", errors.New("io"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translateError(tt.err)
			assert.Equal(t, tt.invalid, errors.Is(err, driver.ErrInvalidQuery))
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestUUIDConversion(t *testing.T) {
	id := uuid.New()

	in := toDriver([]any{id, &id, "x", (*uuid.UUID)(nil)})
	assert.Equal(t, gocql.UUID(id), in[0])
	assert.Equal(t, gocql.UUID(id), in[1])
	assert.Equal(t, "x", in[2])
	assert.Nil(t, in[3])

	assert.Equal(t, id, fromDriver(gocql.UUID(id)))
	assert.Equal(t, []uuid.UUID{id}, fromDriver([]gocql.UUID{gocql.UUID(id)}))
	assert.Equal(t, 3, fromDriver(3))
}
