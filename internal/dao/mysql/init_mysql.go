// Package mysql 提供数据访问层的初始化
// 负责建立 MySQL 连接、自动迁移表结构、初始化 Repository 层
package mysql

import (
	"fmt"

	"campus_chat_server/internal/config"
	"campus_chat_server/internal/dao/mysql/repository"
	"campus_chat_server/internal/model"
	"campus_chat_server/pkg/errorx"

	mysqldriver "gorm.io/driver/mysql" // GORM MySQL 驱动
	"gorm.io/gorm"                     // GORM ORM 框架
	gormlogger "gorm.io/gorm/logger"
)

// DSN 构建 MySQL 连接字符串
// 格式：user:password@tcp(host:port)/database?params
func DSN(conf *config.MysqlConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		conf.User,
		conf.Password,
		conf.Host,
		conf.Port,
		conf.DatabaseName,
	)
}

// Init 初始化数据库连接并返回 Repository 层实例
// 执行步骤：
//  1. 构建 DSN 连接字符串
//  2. 使用 GORM 建立数据库连接并检测连通性
//  3. 执行 AutoMigrate 自动迁移表结构
//  4. 创建并返回 Repository 实例
//
// 任何一步失败都返回错误，由调用方决定是否退出
func Init(conf *config.MysqlConfig) (*repository.Repositories, error) {
	db, err := gorm.Open(mysqldriver.Open(DSN(conf)), &gorm.Config{
		TranslateError: true, // 唯一索引冲突翻译为 gorm.ErrDuplicatedKey
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, errorx.Wrap(err, errorx.CodeDBError, "连接 MySQL 失败")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errorx.Wrap(err, errorx.CodeDBError, "获取底层连接失败")
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, errorx.Wrap(err, errorx.CodeDBError, "MySQL 不可达")
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)

	// AutoMigrate 只创建缺失的表和字段，不会删除已有数据
	if err := db.AutoMigrate(
		&model.UserInfo{},   // 用户信息表
		&model.Connection{}, // 连接关系表
		&model.Message{},    // 消息表
	); err != nil {
		return nil, errorx.Wrap(err, errorx.CodeDBError, "迁移表结构失败")
	}

	return repository.NewRepositories(db), nil
}
