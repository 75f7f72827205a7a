package coursegen

import (
	"fmt"
	"strings"
)

const systemPrompt = `You design short self-paced courses. Answer with a single JSON object and nothing else.
Every lesson teaches one idea in plain prose and ends with a multiple-choice quiz.
Each quiz question has between 2 and 5 options and exactly one correct answer, copied verbatim from the options.`

func buildPrompt(p Params) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a %s level course about %q.\n", p.Difficulty, p.Topic)
	fmt.Fprintf(&b, "Write exactly %d chapters with %d lessons each.\n", p.ChapterCount, p.LessonsPerChapter)
	b.WriteString("Give every lesson an xp value between 5 and 50 that reflects its effort.\n")
	b.WriteString("Give every quiz 2 to 5 questions.\n")
	b.WriteString(`Use this shape:
{"title": string, "description": string, "chapters": [{"title": string, "description": string,
 "lessons": [{"title": string, "content": string, "xp": integer,
 "quiz": {"questions": [{"question": string, "options": [string], "correctAnswer": string, "explanation": string}]}}]}]}`)
	return b.String()
}
