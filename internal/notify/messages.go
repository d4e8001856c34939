package notify

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"

	"github.com/l1jgo/autobuild/internal/automaton"
)

// supported lists the notification locales; the first one is the fallback.
var supported = []language.Tag{language.English, language.TraditionalChinese}

var templates = map[language.Tag]map[string]string{
	language.English: {
		automaton.MsgStarted:   "Construction started: %[1]d elements, needs %[2]s.",
		automaton.MsgPaused:    "Construction paused, missing %[1]s.",
		automaton.MsgResumed:   "Construction resumed.",
		automaton.MsgHeld:      "Construction on hold.",
		automaton.MsgCompleted: "Construction complete: %[1]d elements placed.",
		automaton.MsgAborted:   "Construction aborted: %[1]s.",
		automaton.MsgCanceled:  "Construction canceled, %[1]d elements removed.",
		automaton.MsgStatus:    "Construction %[1]d/%[2]d, waiting for %[3]s.",
	},
	language.TraditionalChinese: {
		automaton.MsgStarted:   "開始建造：共 %[1]d 個構件，需要 %[2]s。",
		automaton.MsgPaused:    "材料不足，暫停建造，尚缺 %[1]s。",
		automaton.MsgResumed:   "材料已補足，繼續建造。",
		automaton.MsgHeld:      "建造已暫停。",
		automaton.MsgCompleted: "建造完成：已放置 %[1]d 個構件。",
		automaton.MsgAborted:   "建造中止：%[1]s。",
		automaton.MsgCanceled:  "建造取消，已移除 %[1]d 個構件。",
		automaton.MsgStatus:    "建造進度 %[1]d/%[2]d，等待 %[3]s。",
	},
}

// reasons translate failure codes passed with MsgAborted.
var reasons = map[language.Tag]map[string]string{
	language.English: {
		"BlueprintMissing":  "blueprint not found",
		"BlueprintCorrupt":  "blueprint is damaged",
		"NoGroundFound":     "no suitable ground",
		"TooCloseToRoad":    "too close to a road",
		"BuildingBlocked":   "building is blocked here",
		"CollisionDetected": "something is in the way",
		"WallBlocked":       "a wall is blocked",
		"RoofBlocked":       "a roof is blocked",
		"SpawnFailed":       "an element could not be placed",
		"Internal":          "internal error",
	},
	language.TraditionalChinese: {
		"BlueprintMissing":  "找不到藍圖",
		"BlueprintCorrupt":  "藍圖已損毀",
		"NoGroundFound":     "找不到合適的地面",
		"TooCloseToRoad":    "太靠近道路",
		"BuildingBlocked":   "此處禁止建造",
		"CollisionDetected": "有物體阻擋",
		"WallBlocked":       "牆面被阻擋",
		"RoofBlocked":       "屋頂被阻擋",
		"SpawnFailed":       "構件無法放置",
		"Internal":          "內部錯誤",
	},
}

// resourceNames are the localized material names used in cost lists.
var resourceNames = map[language.Tag][]string{
	language.English:            {"Wood", "Stone", "Metal", "HQM", "Gears"},
	language.TraditionalChinese: {"木材", "石頭", "金屬碎片", "高級金屬", "齒輪"},
}

func buildCatalog() (catalog.Catalog, error) {
	b := catalog.NewBuilder(catalog.Fallback(supported[0]))
	for tag, msgs := range templates {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				return nil, err
			}
		}
	}
	return b, nil
}
