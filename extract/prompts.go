package extract

import (
	"fmt"
	"strings"

	"github.com/c360studio/chronicler/storage"
)

// Prompt construction for the two inference stages. The prompts are written
// in Chinese to match the corpus; each one pins the JSON schema, a worked
// example, and an explicit item cap with a truncated-name escape hatch so the
// model reports rather than silently drops overflow.

const eventSystemPrompt = "你是专业的历史文献分析专家，擅长从古文中提取结构化的历史事件信息。请严格按照 JSON 格式输出，不要添加任何解释性文字。"

const completionSystemPrompt = "你是专业的历史研究专家，擅长从古文中提取人物和地点信息。请严格按照 JSON 格式输出，不要添加任何解释性文字。"

// buildEventPrompt renders the per-chunk extraction prompt. Known persons and
// places are enumerated with their ids so the model prefers reusing existing
// ids over inventing new mentions. Paragraph text is labeled "[id]" so events
// can reference relatedParagraphs.
func buildEventPrompt(chunk Chunk, paragraphText map[string]string, knownPersons []storage.Person, knownPlaces []storage.Place, maxEvents int) string {
	var b strings.Builder

	b.WriteString("你是历史事件提取专家。请从以下文本中提取重要历史事件。\n")

	if len(knownPersons) > 0 || len(knownPlaces) > 0 {
		b.WriteString("\n## 已知实体（优先复用其 id）\n")
		if len(knownPersons) > 0 {
			b.WriteString("\n已知人物：\n")
			for _, p := range knownPersons {
				b.WriteString(fmt.Sprintf("- %s (id: %s", p.Name, p.ID))
				if len(p.Aliases) > 0 {
					b.WriteString(", 别名: " + strings.Join(p.Aliases, "、"))
				}
				b.WriteString(")\n")
			}
		}
		if len(knownPlaces) > 0 {
			b.WriteString("\n已知地点：\n")
			for _, p := range knownPlaces {
				b.WriteString(fmt.Sprintf("- %s (id: %s", p.Name, p.ID))
				if len(p.Aliases) > 0 {
					b.WriteString(", 别名: " + strings.Join(p.Aliases, "、"))
				}
				b.WriteString(")\n")
			}
		}
		b.WriteString("\n如文本中的人物或地点与已知实体匹配，请在对应的 id 字段中填入其 id；不匹配时省略 id 字段。\n")
	}

	b.WriteString(`
## 输出格式（JSON）

{
  "events": [
    {
      "name": "事件名称",
      "type": "BATTLE|POLITICAL|PERSONAL|OTHER",
      "timeRangeStart": "开始时间，必须使用公元纪年格式：
        - 公元前：使用'-XX年'或'-XX-月'格式，如'-206年'、'-206-12'（表示公元前206年12月）
        - 公元后：使用'XX年'或'XX-月'格式，如'25年'、'25-12'
        - 不确定的年份：'约-206年'或'约25年'
        - 不要使用'汉元年'、'秦二世元年'等朝代年号格式",
      "timeRangeEnd": "结束时间（可选），格式同上，如持续多年的战争",
      "timePrecision": "EXACT_DATE|MONTH|SEASON|YEAR|DECADE|APPROXIMATE",
      "locationName": "历史地名，格式要求：
        - 单一地名：直接写地名，如'鸿门'
        - 有别名或区域说明：使用'主地名 (别名/区域)'格式，如'鸿门 (戏)'
        - 括号内的内容将作为别名存储",
      "locationModernName": "现代地名（如知道）",
      "summary": "事件摘要（200-400字，要点式）",
      "impact": "历史影响（100-200字，可选）",
      "relatedParagraphs": ["段落ID1", "段落ID2"],
      "actors": [
        {
          "id": "已知人物id（可选）",
          "name": "人物姓名",
          "roleType": "PROTAGONIST|ALLY|OPPOSING|ADVISOR|EXECUTOR|OBSERVER|OTHER",
          "description": "此人在事件中的具体表现（50-100字）"
        }
      ],
      "relationships": [
        {
          "sourceName": "人物A",
          "targetName": "人物B",
          "type": "关系类型（如'君臣'、'敌对'、'联盟'）",
          "description": "关系说明（可选）"
        }
      ]
    }
  ],
  "truncated": ["因篇幅限制未能详述的事件名称"]
}

## 示例输出

{
  "events": [
    {
      "name": "鸿门宴",
      "type": "POLITICAL",
      "timeRangeStart": "-206年",
      "timeRangeEnd": null,
      "timePrecision": "YEAR",
      "locationName": "鸿门",
      "locationModernName": "陕西省西安市临潼区",
      "summary": "项羽在鸿门设宴邀请刘邦。范增多次示意项羽杀掉刘邦，但项羽犹豫不决。张良事先得知消息，樊哙闯入护卫。刘邦借如厕之机逃脱，标志着楚汉之争正式开始。",
      "impact": "刘邦成功脱险，保存实力，为日后反败为胜奠定基础。楚汉矛盾公开化，天下进入新的争霸格局。",
      "relatedParagraphs": ["p15", "p16"],
      "actors": [
        {
          "name": "刘邦",
          "roleType": "PROTAGONIST",
          "description": "宴会主要当事人，表面恭顺，暗中寻机脱身"
        },
        {
          "name": "项羽",
          "roleType": "PROTAGONIST",
          "description": "宴会主办者，虽有除掉刘邦之机，但因优柔寡断未能下手"
        },
        {
          "name": "范增",
          "roleType": "ADVISOR",
          "description": "项羽谋士，多次暗示项羽杀刘邦，举玉玦示意，但计谋未被采纳"
        }
      ],
      "relationships": [
        {
          "sourceName": "范增",
          "targetName": "项羽",
          "type": "君臣",
          "description": "范增为项羽的主要谋士"
        }
      ]
    }
  ],
  "truncated": []
}

## 提取要求

`)
	b.WriteString(fmt.Sprintf(`1. **事件选择**：提取文本中的重要历史事件，每批最多 %d 个事件，按重要性排序
   - 如果事件超过 %d 个，优先提取最重要的，并在 truncated 字段中列出未能详述的事件名称
   - 如果事件数量在 %d 个以内，请全部提取，truncated 字段应为空数组
`, maxEvents, maxEvents, maxEvents))
	b.WriteString(`2. **时间精度**：根据文本描述选择合适的时间精度
3. **参与者命名**：actors.name 应使用人物的**本名**（如"刘邦"而非"高祖"或"沛公"）；如果文本中只出现封号/谥号，请推断其本名
4. **参与者角色**：详细描述每个重要人物在事件中的角色和表现
5. **段落关联**：将每个事件关联到它出现的段落ID（relatedParagraphs字段）
6. **摘要质量**：确保摘要完整叙述事件经过，不遗漏关键细节
7. **只输出 JSON**，不要其他说明文字

## 待处理文本

**格式说明**：每段文本前标注了段落ID（格式为 ` + "`[段落ID]`" + `），请在提取事件时，将事件关联到相关的段落ID。

`)
	b.WriteString(labelParagraphs(chunk, paragraphText))
	b.WriteString("\n")

	return b.String()
}

// labelParagraphs rebuilds the chunk text with each paragraph prefixed by its
// id. A chunk without paragraph ids (the fallback-text case) passes through
// unlabeled.
func labelParagraphs(chunk Chunk, paragraphText map[string]string) string {
	if len(chunk.ParagraphIDs) == 0 {
		return chunk.Text
	}
	parts := make([]string, 0, len(chunk.ParagraphIDs))
	for _, id := range chunk.ParagraphIDs {
		text, ok := paragraphText[id]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("[%s] %s", id, strings.TrimSpace(text)))
	}
	if len(parts) == 0 {
		return chunk.Text
	}
	return strings.Join(parts, "\n\n")
}

// completionTextLimit caps the reference text included in a completion
// prompt, in runes.
const completionTextLimit = 15000

// buildCompletionPrompt renders the one-per-chapter entity completion prompt
// for the names referenced by extracted events.
func buildCompletionPrompt(text string, personNames, placeNames []string, maxPersons, maxPlaces int) string {
	var b strings.Builder

	b.WriteString(`你是历史研究专家。请根据以下文本，为这些人物和地点补全详细信息。

## 重要：人物去重与别名识别

**注意**：以下名称列表中可能有多个名称指向同一个人（如"高祖"、"沛公"、"刘邦"都是刘邦）。

**命名规则（必须遵守）**：
- name 字段必须使用人物的**本名**（出生时的姓名），而非封号、谥号或庙号
- 其他所有称呼（字、号、封号、谥号、庙号等）都放入 aliases 数组
- **不要为同一个人创建多条记录**

## 需要补全信息的人物列表

`)
	for i, name := range personNames {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, name))
	}

	if len(placeNames) > 0 {
		b.WriteString("\n## 需要补全信息的地点列表\n\n")
		for i, name := range placeNames {
			b.WriteString(fmt.Sprintf("%d. %s\n", i+1, name))
		}
	}

	b.WriteString(`
## 输出格式（JSON）

{
  "persons": [
    {
      "name": "人物本名（不是封号/谥号）",
      "aliases": ["字", "号", "封号", "谥号", "其他称呼"],
      "role": "MONARCH|ADVISOR|GENERAL|CIVIL_OFFICIAL|MILITARY_OFFICIAL|RELATIVE|EUNUCH|OTHER",
      "faction": "HAN|CHU|NEUTRAL|OTHER",
      "biography": "人物简介（200-400字，基于文本内容）",
      "birthYear": "出生年份（如知道，格式'前XXX年'）",
      "deathYear": "去世年份（如知道）",
      "keyEvents": ["关键事件1", "关键事件2"]
    }
  ],
  "places": [
    {
      "name": "历史地名",
      "aliases": ["别名1", "别名2"],
      "modernName": "现代位置描述（省市区+具体位置）",
      "coordinates": { "lng": 116.92695, "lat": 34.73800 },
      "type": "CITY|BATTLEFIELD|RIVER|MOUNTAIN|REGION|OTHER",
      "faction": "所属势力（如知道）",
      "description": "地理背景描述（100-200字，说明地理位置、地形、战略意义等）",
      "relatedEvents": ["相关事件1"]
    }
  ],
  "truncatedPersons": ["因篇幅限制未能详述的人物名称"],
  "truncatedPlaces": ["因篇幅限制未能详述的地点名称"]
}

## 示例输出

{
  "persons": [
    {
      "name": "刘邦",
      "aliases": ["高祖", "沛公", "汉王", "刘季"],
      "role": "MONARCH",
      "faction": "HAN",
      "biography": "汉朝开国皇帝，出身沛县平民，早年任亭长。秦末起义，先入关中，约法三章得民心。楚汉之争中，善用人才，最终击败项羽，统一天下，建立汉朝。",
      "birthYear": "前256年",
      "deathYear": "前195年",
      "keyEvents": ["沛县起义", "鸿门宴", "垓下之战"]
    }
  ],
  "places": [
    {
      "name": "鸿门",
      "aliases": ["戏"],
      "modernName": "陕西省西安市临潼区",
      "coordinates": { "lng": 109.27, "lat": 34.38 },
      "type": "OTHER",
      "faction": "楚",
      "description": "位于骊山北麓、戏水西岸，扼守关中东出通道，秦末为咸阳门户，项羽驻军于此，鸿门宴即发生于此地。",
      "relatedEvents": ["鸿门宴"]
    }
  ],
  "truncatedPersons": [],
  "truncatedPlaces": []
}

## 补全要求

1. **人物去重**：识别指向同一人的不同名称，合并为一条记录
2. **本名优先**：name 字段使用本名，其他称呼放入 aliases
3. **信息来源**：biography 和 description 应基于文本内容，不要杜撰
4. **年份格式**：使用"前XXX年"格式
`)
	b.WriteString(fmt.Sprintf("5. **数量上限**：最多输出 %d 个人物和 %d 个地点；超出的名称分别列入 truncatedPersons 和 truncatedPlaces\n", maxPersons, maxPlaces))
	b.WriteString(`6. **只输出 JSON**，不要其他说明文字

## 参考文本

`)
	b.WriteString(truncateRunes(text, completionTextLimit))
	b.WriteString("\n")

	return b.String()
}

// truncateRunes cuts s to at most n runes without splitting a character.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
