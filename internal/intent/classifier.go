package intent

import (
	"regexp"
	"strings"
)

// Query types produced by Classify.
const (
	TypeRecommendation = "recommendation"
	TypeQuery          = "query"
	TypeDetail         = "detail"
	TypeGeneral        = "general"
)

// Media kinds.
const (
	MediaMovie   = "movie"
	MediaTV      = "tv"
	MediaVariety = "variety"
	MediaAnime   = "anime"
)

// VideoContext describes what the user is currently watching. Supplied
// by the caller and never mutated.
type VideoContext struct {
	Title    string `json:"title,omitempty"`
	Year     string `json:"year,omitempty"`
	DoubanID int    `json:"douban_id,omitempty"`
	TMDBID   int    `json:"tmdb_id,omitempty"`
	Type     string `json:"type,omitempty"`
	Episode  int    `json:"episode,omitempty"`
}

// Entity is a best-effort extracted mention.
type Entity struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Result is the classified intent of one user message. The three need
// flags are the sole gate for the corresponding provider calls.
type Result struct {
	Type          string   `json:"type"`
	MediaType     string   `json:"media_type,omitempty"`
	NeedWebSearch bool     `json:"need_web_search"`
	NeedDouban    bool     `json:"need_douban"`
	NeedTMDB      bool     `json:"need_tmdb"`
	Keywords      []string `json:"keywords,omitempty"`
	Entities      []Entity `json:"entities,omitempty"`
}

var timeKeywords = []string{
	"最新", "近期", "最近", "即将", "上映", "什么时候", "何时", "播出", "开播",
	"上线", "定档", "更新到", "第二季", "下一季", "新一季", "续集", "完结",
	"latest", "upcoming", "release date", "next season", "when does",
}

var recommendKeywords = []string{
	"推荐", "有什么好看", "有哪些好看", "好看的", "片单", "看什么", "求推荐", "安利",
	"recommend", "what's good", "suggest",
}

var personKeywords = []string{
	"演员", "主演", "导演", "编剧", "出演", "饰演", "演过", "演的",
	"actor", "actress", "director", "starring", "cast",
}

var plotKeywords = []string{
	"讲的是什么", "讲什么", "讲述", "剧情", "故事", "内容", "简介", "结局",
	"what's it about", "storyline", "plot",
}

var newsKeywords = []string{"新闻", "资讯", "爆料", "news"}

var selfReferenceKeywords = []string{
	"这部", "这个片", "这剧", "本剧", "该剧", "这电影", "this show", "this movie",
}

var mediaTypeKeywords = map[string][]string{
	MediaMovie:   {"电影", "影片", "movie", "film"},
	MediaTV:      {"电视剧", "剧集", "连续剧", "美剧", "韩剧", "日剧", "国产剧", "tv show", "series", "drama"},
	MediaVariety: {"综艺", "variety"},
	MediaAnime:   {"动漫", "动画", "anime"},
}

// yearPattern treats explicit year mentions as time-sensitive.
var yearPattern = regexp.MustCompile(`(19|20)\d{2}`)

// personPattern scans for short CJK name-like tokens directly followed
// by a possessive or acting particle. Best-effort only.
var personPattern = regexp.MustCompile(`(\p{Han}{2,4})(?:主演|出演|演过|演的|导演的|的电影|的电视剧|的作品|的新片)`)

// Classify maps a user message and optional video context to a
// structured intent. Pure and deterministic; identical inputs always
// produce structurally identical results.
func Classify(message string, ctx *VideoContext) Result {
	normalized := strings.ToLower(strings.TrimSpace(message))

	var matched []string
	match := func(keywords []string) bool {
		found := false
		for _, keyword := range keywords {
			if strings.Contains(normalized, keyword) {
				matched = append(matched, keyword)
				found = true
			}
		}
		return found
	}

	hasTime := match(timeKeywords)
	if yearPattern.MatchString(normalized) {
		hasTime = true
	}
	hasRecommend := match(recommendKeywords)
	hasPerson := match(personKeywords)
	hasPlot := match(plotKeywords)
	hasNews := match(newsKeywords)
	hasSelfReference := match(selfReferenceKeywords)

	mediaType := ""
	for _, kind := range []string{MediaMovie, MediaTV, MediaVariety, MediaAnime} {
		if match(mediaTypeKeywords[kind]) {
			mediaType = kind
			break
		}
	}
	if mediaType == "" && ctx != nil {
		mediaType = ctx.Type
	}

	queryType := TypeGeneral
	switch {
	case hasRecommend:
		queryType = TypeRecommendation
	case ctx != nil && (hasPlot || hasSelfReference):
		queryType = TypeDetail
	case hasPerson || hasTime:
		queryType = TypeQuery
	}

	result := Result{
		Type:          queryType,
		MediaType:     mediaType,
		NeedWebSearch: hasTime || hasPerson || hasNews || (hasRecommend && hasTime) || queryType == TypeQuery,
		NeedDouban:    hasRecommend || queryType == TypeDetail || (ctx != nil && ctx.DoubanID > 0),
		NeedTMDB:      queryType == TypeDetail || (ctx != nil && ctx.TMDBID > 0),
		Keywords:      matched,
		Entities:      extractEntities(message),
	}
	return result
}

func extractEntities(message string) []Entity {
	var entities []Entity
	seen := make(map[string]bool)
	for _, groups := range personPattern.FindAllStringSubmatch(message, -1) {
		name := groups[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		entities = append(entities, Entity{Type: "person", Value: name})
	}
	return entities
}
