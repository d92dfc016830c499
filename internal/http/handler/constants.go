package handler

const (
	paramID = "id"

	queryKeyword    = "keyword"
	queryCategoryID = "categoryId"
	queryProjectID  = "projectId"
	queryPage       = "page"
	queryLimit      = "limit"

	queryOperator     = "operator"
	queryResourceType = "resourceType"
	queryAction       = "action"
	queryStatus       = "status"

	formFieldFile = "file"
)

const (
	msgContentTypeJSONRequired = "Content-Type 必须为 application/json"
	msgInvalidRequestBody      = "请求数据格式错误"
	msgInvalidID               = "无效的 ID"
	msgInvalidQueryFmt         = "参数 %s 无效"
	msgProjectIDRequired       = "缺少 projectId 参数"
	msgDeleted                 = "删除成功"
	msgReordered               = "排序已更新"
	msgGenerated               = "文档已生成"
	msgFileRequired            = "请选择要上传的图片"
	msgFileReadFailed          = "读取上传文件失败"
	msgUploadUnavailable       = "未配置图床"
)
