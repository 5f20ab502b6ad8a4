package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"tmmedia/internal/model/studio"
)

// EnsureIndexes 在应用启动时创建所有模型的索引
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	return EnsureAllIndexes(ctx, db,
		&studio.Project{},
	)
}
