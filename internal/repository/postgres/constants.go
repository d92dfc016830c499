package postgres

import (
	"fmt"
	"time"
)

const (
	poolHealthCheckPeriod = time.Minute
	poolMaxConnLifetime   = time.Hour
	poolMaxConnIdleTime   = 30 * time.Minute
	dbPingTimeout         = 5 * time.Second

	msgProjectNotFound     = "项目不存在"
	msgCategoryNotFound    = "分类不存在"
	msgSubProjectNotFound  = "子项目不存在"
	msgContentTypeNotFound = "内容类型不存在"
	msgContentNotFound     = "内容不存在"
	msgCommandNotFound     = "口令不存在"
	msgImageNotFound       = "图片不存在"
	msgContentTypeInUse    = "内容类型正在使用中"
	msgContentTypeExists   = "内容类型名称已存在"
	msgNothingToGenerate   = "没有可生成文档的子项目"

	errFailedParseDatabaseConfigFmt  = "failed to parse database config: %w"
	errFailedCreateConnectionPoolFmt = "failed to create connection pool: %w"
	errFailedPingDatabaseFmt         = "failed to ping database: %w"
	errFailedStartTransactionFmt     = "failed to start transaction: %w"
	errFailedCommitTransactionFmt    = "failed to commit transaction: %w"

	errFailedListProjectsFmt  = "failed to list projects: %w"
	errFailedCountProjectsFmt = "failed to count projects: %w"
	errFailedScanProjectFmt   = "failed to scan project: %w"
	errFailedGetProjectFmt    = "failed to get project: %w"
	errFailedCreateProjectFmt = "failed to create project: %w"
	errFailedUpdateProjectFmt = "failed to update project: %w"
	errFailedDeleteProjectFmt = "failed to delete project: %w"

	errFailedListCategoriesFmt = "failed to list categories: %w"
	errFailedScanCategoryFmt   = "failed to scan category: %w"
	errFailedCreateCategoryFmt = "failed to create category: %w"
	errFailedUpdateCategoryFmt = "failed to update category: %w"
	errFailedDeleteCategoryFmt = "failed to delete category: %w"

	errFailedListSubProjectsFmt   = "failed to list sub-projects: %w"
	errFailedScanSubProjectFmt    = "failed to scan sub-project: %w"
	errFailedGetSubProjectFmt     = "failed to get sub-project: %w"
	errFailedCreateSubProjectFmt  = "failed to create sub-project: %w"
	errFailedUpdateSubProjectFmt  = "failed to update sub-project: %w"
	errFailedDeleteSubProjectFmt  = "failed to delete sub-project: %w"
	errFailedReorderSubProjectFmt = "failed to reorder sub-projects: %w"

	errFailedListContentTypesFmt  = "failed to list content types: %w"
	errFailedScanContentTypeFmt   = "failed to scan content type: %w"
	errFailedGetContentTypeFmt    = "failed to get content type: %w"
	errFailedCreateContentTypeFmt = "failed to create content type: %w"
	errFailedUpdateContentTypeFmt = "failed to update content type: %w"
	errFailedDeleteContentTypeFmt = "failed to delete content type: %w"

	errFailedListContentsFmt  = "failed to list contents: %w"
	errFailedScanContentFmt   = "failed to scan content: %w"
	errFailedGetContentFmt    = "failed to get content: %w"
	errFailedCreateContentFmt = "failed to create content: %w"
	errFailedUpdateContentFmt = "failed to update content: %w"
	errFailedDeleteContentFmt = "failed to delete content: %w"

	errFailedListCommandsFmt  = "failed to list text commands: %w"
	errFailedScanCommandFmt   = "failed to scan text command: %w"
	errFailedCreateCommandFmt = "failed to create text command: %w"
	errFailedUpdateCommandFmt = "failed to update text command: %w"
	errFailedDeleteCommandFmt = "failed to delete text command: %w"

	errFailedGenerateDocumentationFmt = "failed to generate documentation: %w"
	errFailedLastGeneratedFmt         = "failed to read last generation time: %w"

	errFailedSaveImageFmt  = "failed to save uploaded image: %w"
	errFailedListImagesFmt = "failed to list uploaded images: %w"
	errFailedScanImageFmt  = "failed to scan uploaded image: %w"
)

var (
	errFailedParseDatabaseConfig  = func(err error) error { return fmt.Errorf(errFailedParseDatabaseConfigFmt, err) }
	errFailedCreateConnectionPool = func(err error) error { return fmt.Errorf(errFailedCreateConnectionPoolFmt, err) }
	errFailedPingDatabase         = func(err error) error { return fmt.Errorf(errFailedPingDatabaseFmt, err) }
	errFailedStartTransaction     = func(err error) error { return fmt.Errorf(errFailedStartTransactionFmt, err) }
	errFailedCommitTransaction    = func(err error) error { return fmt.Errorf(errFailedCommitTransactionFmt, err) }

	errFailedListProjects  = func(err error) error { return fmt.Errorf(errFailedListProjectsFmt, err) }
	errFailedCountProjects = func(err error) error { return fmt.Errorf(errFailedCountProjectsFmt, err) }
	errFailedScanProject   = func(err error) error { return fmt.Errorf(errFailedScanProjectFmt, err) }
	errFailedGetProject    = func(err error) error { return fmt.Errorf(errFailedGetProjectFmt, err) }
	errFailedCreateProject = func(err error) error { return fmt.Errorf(errFailedCreateProjectFmt, err) }
	errFailedUpdateProject = func(err error) error { return fmt.Errorf(errFailedUpdateProjectFmt, err) }
	errFailedDeleteProject = func(err error) error { return fmt.Errorf(errFailedDeleteProjectFmt, err) }

	errFailedListCategories = func(err error) error { return fmt.Errorf(errFailedListCategoriesFmt, err) }
	errFailedScanCategory   = func(err error) error { return fmt.Errorf(errFailedScanCategoryFmt, err) }
	errFailedCreateCategory = func(err error) error { return fmt.Errorf(errFailedCreateCategoryFmt, err) }
	errFailedUpdateCategory = func(err error) error { return fmt.Errorf(errFailedUpdateCategoryFmt, err) }
	errFailedDeleteCategory = func(err error) error { return fmt.Errorf(errFailedDeleteCategoryFmt, err) }

	errFailedListSubProjects   = func(err error) error { return fmt.Errorf(errFailedListSubProjectsFmt, err) }
	errFailedScanSubProject    = func(err error) error { return fmt.Errorf(errFailedScanSubProjectFmt, err) }
	errFailedGetSubProject     = func(err error) error { return fmt.Errorf(errFailedGetSubProjectFmt, err) }
	errFailedCreateSubProject  = func(err error) error { return fmt.Errorf(errFailedCreateSubProjectFmt, err) }
	errFailedUpdateSubProject  = func(err error) error { return fmt.Errorf(errFailedUpdateSubProjectFmt, err) }
	errFailedDeleteSubProject  = func(err error) error { return fmt.Errorf(errFailedDeleteSubProjectFmt, err) }
	errFailedReorderSubProject = func(err error) error { return fmt.Errorf(errFailedReorderSubProjectFmt, err) }

	errFailedListContentTypes  = func(err error) error { return fmt.Errorf(errFailedListContentTypesFmt, err) }
	errFailedScanContentType   = func(err error) error { return fmt.Errorf(errFailedScanContentTypeFmt, err) }
	errFailedGetContentType    = func(err error) error { return fmt.Errorf(errFailedGetContentTypeFmt, err) }
	errFailedCreateContentType = func(err error) error { return fmt.Errorf(errFailedCreateContentTypeFmt, err) }
	errFailedUpdateContentType = func(err error) error { return fmt.Errorf(errFailedUpdateContentTypeFmt, err) }
	errFailedDeleteContentType = func(err error) error { return fmt.Errorf(errFailedDeleteContentTypeFmt, err) }

	errFailedListContents  = func(err error) error { return fmt.Errorf(errFailedListContentsFmt, err) }
	errFailedScanContent   = func(err error) error { return fmt.Errorf(errFailedScanContentFmt, err) }
	errFailedGetContent    = func(err error) error { return fmt.Errorf(errFailedGetContentFmt, err) }
	errFailedCreateContent = func(err error) error { return fmt.Errorf(errFailedCreateContentFmt, err) }
	errFailedUpdateContent = func(err error) error { return fmt.Errorf(errFailedUpdateContentFmt, err) }
	errFailedDeleteContent = func(err error) error { return fmt.Errorf(errFailedDeleteContentFmt, err) }

	errFailedListCommands  = func(err error) error { return fmt.Errorf(errFailedListCommandsFmt, err) }
	errFailedScanCommand   = func(err error) error { return fmt.Errorf(errFailedScanCommandFmt, err) }
	errFailedCreateCommand = func(err error) error { return fmt.Errorf(errFailedCreateCommandFmt, err) }
	errFailedUpdateCommand = func(err error) error { return fmt.Errorf(errFailedUpdateCommandFmt, err) }
	errFailedDeleteCommand = func(err error) error { return fmt.Errorf(errFailedDeleteCommandFmt, err) }

	errFailedGenerateDocumentation = func(err error) error { return fmt.Errorf(errFailedGenerateDocumentationFmt, err) }
	errFailedLastGenerated         = func(err error) error { return fmt.Errorf(errFailedLastGeneratedFmt, err) }

	errFailedSaveImage  = func(err error) error { return fmt.Errorf(errFailedSaveImageFmt, err) }
	errFailedListImages = func(err error) error { return fmt.Errorf(errFailedListImagesFmt, err) }
	errFailedScanImage  = func(err error) error { return fmt.Errorf(errFailedScanImageFmt, err) }
)
