package merge

import (
	"encoding/json"
	"fmt"

	"github.com/c360studio/chronicler/extract"
	"github.com/c360studio/chronicler/storage"
)

const mergeSystemPrompt = `你是一位严谨的历史数据管理专家。你的任务是判断两条记录是否指同一个真实的历史实体，并在确认时给出合并后的完整数据。只输出 JSON，不要输出任何其他内容。`

const personMergeTemplate = `请判断以下两条人物记录是否指同一个历史人物。

已有记录：
%s

新记录：
%s

判断依据：
1. 姓名或别名是否指向同一人（注意谥号、封号、字、号等不同称呼）
2. 生卒年份、活跃时期是否吻合或兼容
3. 阵营、身份、生平描述是否一致且无矛盾

如果是同一人，给出合并后的完整数据：保留更详细的生平描述，合并所有别名（去重），合并所有关键事件（去重），年份字段以更精确的记录为准。

返回 JSON，格式：
{
  "shouldMerge": true或false,
  "confidence": 0到1之间的数字,
  "reason": "判断理由",
  "mergedData": {
    "name": "标准姓名",
    "aliases": ["别名"],
    "role": "身份",
    "faction": "阵营",
    "birthYear": "出生年份，如 前256年",
    "deathYear": "去世年份",
    "activePeriodStart": "活跃起始年份",
    "activePeriodEnd": "活跃结束年份",
    "biography": "合并后的生平",
    "keyEvents": ["关键事件"]
  },
  "changes": { "字段名": "变更说明" }
}

如果不是同一人，shouldMerge 为 false，mergedData 为空对象。`

const placeMergeTemplate = `请判断以下两条地点记录是否指同一个历史地点。

已有记录：
%s

新记录：
%s

判断依据：
1. 名称或别名是否指向同一地（注意古今异名、括注说明）
2. 今地名、地理位置是否吻合
3. 描述是否一致且无矛盾

如果是同一地点，给出合并后的完整数据：保留更详细的描述，合并所有别名和相关事件（去重），坐标以更精确的记录为准。

返回 JSON，格式：
{
  "shouldMerge": true或false,
  "confidence": 0到1之间的数字,
  "reason": "判断理由",
  "mergedData": {
    "name": "标准名称",
    "aliases": ["别名"],
    "modernName": "今地名",
    "coordinates": { "lng": 经度, "lat": 纬度 },
    "type": "CITY、BATTLEFIELD、RIVER、MOUNTAIN、REGION 或 OTHER",
    "faction": "所属势力",
    "description": "合并后的描述",
    "relatedEvents": ["相关事件"]
  },
  "changes": { "字段名": "变更说明" }
}

如果不是同一地点，shouldMerge 为 false，mergedData 为空对象。`

func buildPersonMergePrompt(existing storage.Person, proposal extract.PersonProposal) string {
	return fmt.Sprintf(personMergeTemplate, recordJSON(existing), recordJSON(proposal))
}

func buildPlaceMergePrompt(existing storage.Place, proposal extract.PlaceProposal) string {
	return fmt.Sprintf(placeMergeTemplate, recordJSON(existing), recordJSON(proposal))
}

func recordJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(data)
}
