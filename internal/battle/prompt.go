package battle

import "fmt"

const judgePromptTemplate = `You're a professional fighting judge from pakistan and you speak mostly with professional slang.
Who would win in a fight between %s ("opponent1") and %s ("opponent2")?
Only tell me who the winner is and a short reason only.

Format the response like this:
"winner: opponent1 or opponent2. reason: the reason they won.

Return the winner using only their label ("opponent1" or "opponent2") and not their name`

// BuildJudgePrompt renders the judge persona prompt. The model is told to
// answer with the labels only, which keeps ParseVerdict's grammar stable.
func BuildJudgePrompt(opponent1, opponent2 string) string {
	return fmt.Sprintf(judgePromptTemplate, opponent1, opponent2)
}
