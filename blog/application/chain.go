package application

import (
	"fmt"
	"sort"

	"github.com/dfryer1193/peakblog/blog/domain"
	"github.com/rs/zerolog/log"
)

// ChainIssueKind classifies a problem in the previous/next series links.
type ChainIssueKind string

const (
	ChainDanglingPrevious ChainIssueKind = "dangling-previous"
	ChainDanglingNext     ChainIssueKind = "dangling-next"
	ChainAsymmetric       ChainIssueKind = "asymmetric"
	ChainSelfLink         ChainIssueKind = "self-link"
	ChainCycle            ChainIssueKind = "cycle"
)

// ChainIssue describes one problem found by ValidateChain.
type ChainIssue struct {
	Kind   ChainIssueKind
	PostID int
	Target int
}

func (i ChainIssue) String() string {
	switch i.Kind {
	case ChainDanglingPrevious:
		return fmt.Sprintf("post %d: previous points at missing post %d", i.PostID, i.Target)
	case ChainDanglingNext:
		return fmt.Sprintf("post %d: next points at missing post %d", i.PostID, i.Target)
	case ChainAsymmetric:
		return fmt.Sprintf("post %d: next is %d but post %d does not point back", i.PostID, i.Target, i.Target)
	case ChainSelfLink:
		return fmt.Sprintf("post %d links to itself", i.PostID)
	case ChainCycle:
		return fmt.Sprintf("post %d: following next links returns to post %d", i.PostID, i.Target)
	default:
		return fmt.Sprintf("post %d: %s %d", i.PostID, i.Kind, i.Target)
	}
}

// ValidateChain checks the series links between posts. Links are author curated and never rejected;
// the detail page only follows one hop, so every issue here is informational.
func ValidateChain(posts []*domain.Post) []ChainIssue {
	byID := make(map[int]*domain.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}

	ids := make([]int, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var issues []ChainIssue
	for _, id := range ids {
		p := byID[id]

		if p.Previous == p.ID || p.Next == p.ID {
			issues = append(issues, ChainIssue{Kind: ChainSelfLink, PostID: p.ID, Target: p.ID})
		}

		if p.Previous != 0 {
			if _, ok := byID[p.Previous]; !ok {
				issues = append(issues, ChainIssue{Kind: ChainDanglingPrevious, PostID: p.ID, Target: p.Previous})
			}
		}

		if p.Next != 0 && p.Next != p.ID {
			next, ok := byID[p.Next]
			if !ok {
				issues = append(issues, ChainIssue{Kind: ChainDanglingNext, PostID: p.ID, Target: p.Next})
			} else if next.Previous != p.ID {
				issues = append(issues, ChainIssue{Kind: ChainAsymmetric, PostID: p.ID, Target: p.Next})
			}
		}
	}

	// Report each forward cycle once, at its smallest id.
	reported := make(map[int]bool)
	for _, id := range ids {
		if reported[id] || byID[id].Next == id {
			continue
		}
		seen := map[int]bool{id: true}
		path := []int{id}
		for cur := byID[id].Next; cur != 0; {
			p, ok := byID[cur]
			if !ok {
				break
			}
			if seen[cur] {
				if cur == id {
					for _, member := range path {
						reported[member] = true
					}
					issues = append(issues, ChainIssue{Kind: ChainCycle, PostID: id, Target: id})
				}
				break
			}
			seen[cur] = true
			path = append(path, cur)
			cur = p.Next
		}
	}

	return issues
}

// LogChainIssues writes each issue as a warning.
func LogChainIssues(issues []ChainIssue) {
	for _, issue := range issues {
		log.Warn().
			Str("kind", string(issue.Kind)).
			Int("postID", issue.PostID).
			Int("target", issue.Target).
			Msg(issue.String())
	}
}
