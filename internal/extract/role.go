package extract

import (
	"regexp"
	"strings"

	"github.com/minutelab/minuted/internal/conversation"
)

// Content-based role detection is best effort and strictly lower
// priority than explicit role attributes. The patterns cover English and
// Korean phrasing observed on real share pages.
var (
	userLeadPattern = regexp.MustCompile(`(?i)^(hi|hello|hey|what|how|why|when|where|who|can you|please|help|안녕|질문|문의|도움|요청|알아|알고|궁금|해줘|해주|도와|설명해|분석해|추천해)`)

	assistantLeadPattern = regexp.MustCompile(`(?i)^(i'm|i am|i can|i will|i would|i should|i think|i believe|here's|here is|let me|i'll|sure|certainly|네|예|좋습니다|알겠습니다|도와드리겠습니다|제안해드리겠습니다|분석해보겠습니다|설명드리겠습니다|다음은|예를 들어)`)

	koreanInterrogative = regexp.MustCompile(`^(무엇|어떤|어떻게|왜|언제|어디서|누가|어느|몇|얼마나)`)
)

// shortTurnThreshold: user requests tend to be short, assistant replies
// long. Only consulted when every phrasing heuristic is inconclusive.
const shortTurnThreshold = 100

// GuessRole infers the author of a turn from its text alone. It is the
// fallback used when extraction finds no explicit role metadata.
func GuessRole(text string) conversation.Role {
	trimmed := strings.TrimSpace(text)
	if userLeadPattern.MatchString(trimmed) {
		return conversation.RoleUser
	}
	if assistantLeadPattern.MatchString(trimmed) {
		return conversation.RoleAssistant
	}
	if strings.Contains(trimmed, "?") || koreanInterrogative.MatchString(trimmed) {
		return conversation.RoleUser
	}
	if len(trimmed) < shortTurnThreshold {
		return conversation.RoleUser
	}
	return conversation.RoleAssistant
}
