package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plugsh/plugsh/domain/entities"
)

func TestHandlerDescriptorValidate(t *testing.T) {
	valid := entities.HandlerDescriptor{
		Name:      "count",
		State:     7,
		InvokeFn:  1,
		DestroyFn: 2,
	}

	tests := []struct {
		name    string
		mutate  func(*entities.HandlerDescriptor)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*entities.HandlerDescriptor) {},
		},
		{
			name:   "zero state is valid",
			mutate: func(d *entities.HandlerDescriptor) { d.State = 0 },
		},
		{
			name:    "empty name",
			mutate:  func(d *entities.HandlerDescriptor) { d.Name = "" },
			wantErr: "invalid handler descriptor",
		},
		{
			name:    "whitespace in name",
			mutate:  func(d *entities.HandlerDescriptor) { d.Name = "bad name" },
			wantErr: "contains whitespace",
		},
		{
			name:    "tab in name",
			mutate:  func(d *entities.HandlerDescriptor) { d.Name = "bad\tname" },
			wantErr: "contains whitespace",
		},
		{
			name:    "nil invoke function",
			mutate:  func(d *entities.HandlerDescriptor) { d.InvokeFn = entities.NilFunc },
			wantErr: "invalid handler descriptor",
		},
		{
			name:    "nil destroy function",
			mutate:  func(d *entities.HandlerDescriptor) { d.DestroyFn = entities.NilFunc },
			wantErr: "invalid handler descriptor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid
			tt.mutate(&d)
			err := d.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
