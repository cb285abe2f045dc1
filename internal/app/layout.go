package app

import "sidediff/internal/diffview"

// paneWidths splits the terminal into the files pane and the diff area. Widths are content widths; borders are
// accounted for here. The diff area holds two bordered panes (4 columns of border).
func paneWidths(totalWidth int, desiredLeft int, hideLeft bool) (int, int) {
	const diffOverhead = 4
	if hideLeft {
		available := totalWidth - diffOverhead
		if available < 1 {
			return 0, 1
		}
		return 0, available
	}

	// files pane border => 2
	available := totalWidth - diffOverhead - 2
	if available < 2 {
		return 1, 1
	}

	left := desiredLeft
	if left < 1 {
		left = 1
	}
	if left > available-1 {
		left = available - 1
	}
	right := available - left
	if right < 1 {
		right = 1
		left = available - right
	}
	return left, right
}

// splitDiffPanes divides the diff area between the base pane, the connector gutter and the target pane.
func splitDiffPanes(totalWidth int) (int, int) {
	totalWidth -= diffview.GutterWidth
	if totalWidth <= 1 {
		return 1, 1
	}
	left := totalWidth / 2
	right := totalWidth - left
	return max(left, 1), max(right, 1)
}
