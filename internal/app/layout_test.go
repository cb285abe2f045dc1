package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPaneWidths(t *testing.T) {
	tests := []struct {
		name        string
		total       int
		hide        bool
		left, right int
	}{
		{name: "with files pane", total: 120, left: 40, right: 74},
		{name: "files hidden", total: 120, hide: true, left: 0, right: 116},
		{name: "too narrow", total: 5, left: 1, right: 1},
		{name: "narrow", total: 20, left: 13, right: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			left, right := paneWidths(tt.total, 40, tt.hide)
			require.Equal(t, []int{tt.left, tt.right}, []int{left, right})
		})
	}
}

func TestSplitDiffPanesLeavesRoomForGutter(t *testing.T) {
	for total, want := range map[int][2]int{83: {40, 40}, 84: {40, 41}, 2: {1, 1}} {
		base, target := splitDiffPanes(total)
		require.Equal(t, want, [2]int{base, target}, "splitDiffPanes(%d)", total)
	}
}
