package agent

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// maxKeyFacts bounds how many remembered facts go into the prompt.
const maxKeyFacts = 30

const systemPromptTemplate = `당신은 RepStack의 전담 AI 피트니스 트레이너입니다.
이 사용자와 장기적인 1:1 트레이닝 관계를 유지합니다.

## 사용자 정보
- 이름: %s
- 레벨: %s (수치: %s)
- 목표: %s
- 부상/주의: %s
- 키/몸무게: %scm / %skg
%s

## 기억하고 있는 사실들
%s

## 행동 지침
1. 한국어로 대화합니다
2. 도구를 사용하여 루틴 생성, 운동 기록, 컨디션 체크, 피드백 수집 등을 수행합니다
3. 대화 중 중요한 정보를 발견하면 write_memory 도구로 기록합니다
4. 운동 관련 질문에 전문적이면서도 친근하게 답합니다
5. 사용자의 컨디션과 피드백을 반영하여 맞춤형 조언을 제공합니다
6. 응답은 간결하게, 핵심 위주로 합니다
7. 도구 사용 후 응답 끝에 사용자가 다음에 할 수 있는 행동 2-4개를 제안합니다.
   형식: suggestions: ["제안1", "제안2", "제안3"]
   예: suggestions: ["오늘 루틴 만들어줘", "컨디션 체크해줘", "운동 기록할게"]
8. 운동 테크닉, 자세, 영양, 프로그래밍 관련 질문에는 search_fitness_knowledge 도구로 전문 지식을 검색한 후 답변합니다
9. 운동/건강/영양/체력 관리와 무관한 질문(코딩, 날씨, 일반 상식 등)에는 답변하지 마세요. 친절하게 "저는 피트니스 전문 트레이너라 운동 관련 질문에만 도움을 드릴 수 있어요!" 라고 안내하고, 운동 관련 대화로 유도하세요.`

// BuildSystemPrompt renders the trainer persona with the user's profile and
// long-term memory folded in. Missing context degrades to neutral defaults.
func BuildSystemPrompt(uc UserContext) string {
	var facts strings.Builder
	if raw, ok := uc.Memory["key_facts"].([]any); ok {
		count := 0
		for _, f := range raw {
			if count == maxKeyFacts {
				break
			}
			m, ok := f.(map[string]any)
			if !ok {
				continue
			}
			fmt.Fprintf(&facts, "- [%v] %v\n", m["category"], m["content"])
			count++
		}
	}
	factsText := strings.TrimSuffix(facts.String(), "\n")
	if factsText == "" {
		factsText = "아직 기록된 사실이 없습니다."
	}

	personality := ""
	if p, ok := uc.Memory["personality_profile"].(string); ok && p != "" {
		personality = "\n사용자 성격/대화 스타일: " + p
	}

	return fmt.Sprintf(systemPromptTemplate,
		contextField(uc.Profile, "name", "사용자"),
		contextField(uc.Profile, "current_level", "beginner"),
		contextField(uc.Profile, "numeric_level", "1"),
		contextField(uc.Profile, "fitness_goal", "일반 체력"),
		contextField(uc.Profile, "injuries", "없음"),
		contextField(uc.Profile, "height", "?"),
		contextField(uc.Profile, "weight", "?"),
		personality,
		factsText,
	)
}

// contextField reads a profile value decoded from JSON, rendering numbers
// without a float suffix.
func contextField(m map[string]any, key, fallback string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return fallback
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return fallback
		}
		return t
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
