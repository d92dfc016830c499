package store

const (
	msgProjectCreateFailed    = "创建项目失败"
	msgProjectNotFound        = "项目不存在"
	msgCategoryCreateFailed   = "创建分类失败"
	msgCategoryNotFound       = "分类不存在"
	msgSubProjectCreateFailed = "创建子项目失败"
	msgSubProjectUpdateFailed = "更新子项目失败"
	msgSubProjectNotFound     = "子项目不存在"
	msgTypeCreateFailed       = "创建内容类型失败"
	msgTypeNotFound           = "内容类型不存在"
	msgContentCreateFailed    = "新增内容失败"
	msgContentUpdateFailed    = "更新内容失败"
	msgCommandSaveFailed      = "保存口令失败"
	msgDocsFetchFailed        = "获取文档失败"
)
