package types

const (
	NO_PAGINATION = 0

	// 成员列表单页上限，take 超过该值时被钳到这里
	MAX_PAGE_SIZE     = 100
	DEFAULT_PAGE_SIZE = 20
)

const (
	LANGUAGE_EN_KEY = "en"
	LANGUAGE_CN_KEY = "zh-CN"
)

const DEFAULT_APPID = "notevault"
