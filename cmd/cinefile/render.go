package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"cinefile/internal/aggregate"
	"cinefile/internal/store"
)

const (
	ansiReset  = "\x1b[0m"
	ansiDim    = "\x1b[2m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func formatYear(year *int) string {
	if year == nil || *year == 0 {
		return "-"
	}
	return strconv.Itoa(*year)
}

func formatRank(rank *int) string {
	if rank == nil {
		return "-"
	}
	return strconv.Itoa(*rank)
}

func formatRating(rating *float64) string {
	if rating == nil {
		return "-"
	}
	return strconv.FormatFloat(*rating, 'f', 1, 64)
}

func formatScore(score *float64) string {
	if score == nil {
		return "-"
	}
	return fmt.Sprintf("%.3f", *score)
}

func formatListRanks(lists []aggregate.ListRank) string {
	parts := make([]string, 0, len(lists))
	for _, l := range lists {
		parts = append(parts, fmt.Sprintf("%s#%s", l.ListID, formatRank(l.Rank)))
	}
	return strings.Join(parts, ", ")
}

// movieTitle dims placeholder titles on a terminal.
func movieTitle(m store.Movie, placeholder, colorize bool) string {
	title := m.DisplayTitle()
	if placeholder && colorize {
		return ansiDim + title + ansiReset
	}
	return title
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
