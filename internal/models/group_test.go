package models

import "testing"

func TestGroupMessageReadCount(t *testing.T) {
	tests := []struct {
		name   string
		author string
		readBy []string
		want   int
	}{
		{
			name:   "no readers",
			author: "a",
			readBy: nil,
			want:   0,
		},
		{
			name:   "author only",
			author: "a",
			readBy: []string{"a"},
			want:   0,
		},
		{
			name:   "two readers plus author",
			author: "a",
			readBy: []string{"a", "b", "c"},
			want:   2,
		},
		{
			name:   "duplicate reader counts once",
			author: "a",
			readBy: []string{"b", "b", "b"},
			want:   1,
		},
		{
			name:   "duplicates and author mixed",
			author: "a",
			readBy: []string{"b", "a", "c", "b", "a"},
			want:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := GroupMessage{FromUserID: tt.author, ReadBy: tt.readBy}
			if got := m.ReadCount(); got != tt.want {
				t.Errorf("ReadCount() = %d, want %d", got, tt.want)
			}
		})
	}
}
