package proximity

// computeNearestNeighbors fills every cell with the non-spacer keys whose edge is
// closer than the threshold to the cell center.
//
// Only the window of cells whose centers can be within the threshold of a key's
// bounding box is visited. Along Y, the window starts at the first cell center at
// or below key.Y-threshold: the top pixel is aligned down to the grid, and when it
// lies past the middle of that cell the iteration starts one cell lower. The window
// ends at key.Y+key.Height+threshold, clamped to the last pixel the grid covers.
// X is handled the same way.
func computeNearestNeighbors(info *Info) [][]Key {
	keys := info.sortedKeys
	keyCount := len(keys)
	gridSize := info.gridSize
	threshold := info.Threshold()
	thresholdSquared := threshold * threshold
	cellWidth := info.cellWidth
	cellHeight := info.cellHeight
	// Rounded up so no pixel lies outside the grid.
	lastPixelX := info.gridWidth*cellWidth - 1
	lastPixelY := info.gridHeight*cellHeight - 1
	halfCellWidth := cellWidth / 2
	halfCellHeight := cellHeight / 2

	// Each cell owns keyCount consecutive slots of the flat buffer; counts tracks
	// how many are in use. The buffer lives only for this build.
	flat := make([]Key, gridSize*keyCount)
	counts := make([]int, gridSize)

	for _, key := range keys {
		if key.IsSpacer() {
			continue
		}
		keyX := key.X()
		keyY := key.Y()

		topPixelWithinThreshold := keyY - threshold
		yDeltaToGrid := topPixelWithinThreshold % cellHeight
		yMiddleOfTopCell := topPixelWithinThreshold - yDeltaToGrid + halfCellHeight
		yStart := yMiddleOfTopCell
		if yDeltaToGrid > halfCellHeight {
			yStart += cellHeight
		}
		yStart = max(halfCellHeight, yStart)
		yEnd := min(lastPixelY, keyY+key.Height()+threshold)

		leftPixelWithinThreshold := keyX - threshold
		xDeltaToGrid := leftPixelWithinThreshold % cellWidth
		xMiddleOfLeftCell := leftPixelWithinThreshold - xDeltaToGrid + halfCellWidth
		xStart := xMiddleOfLeftCell
		if xDeltaToGrid > halfCellWidth {
			xStart += cellWidth
		}
		xStart = max(halfCellWidth, xStart)
		xEnd := min(lastPixelX, keyX+key.Width()+threshold)

		rowBase := (yStart/cellHeight)*info.gridWidth + xStart/cellWidth
		for centerY := yStart; centerY <= yEnd; centerY += cellHeight {
			index := rowBase
			for centerX := xStart; centerX <= xEnd; centerX += cellWidth {
				if key.SquaredDistanceToEdge(centerX, centerY) < thresholdSquared {
					flat[index*keyCount+counts[index]] = key
					counts[index]++
				}
				index++
			}
			rowBase += info.gridWidth
		}
	}

	neighbors := make([][]Key, gridSize)
	for i := range neighbors {
		start := i * keyCount
		cell := make([]Key, counts[i])
		copy(cell, flat[start:start+counts[i]])
		neighbors[i] = cell
	}
	return neighbors
}
