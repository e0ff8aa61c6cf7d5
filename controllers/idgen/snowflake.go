package idgen

import (
	"fmt"
	"log"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

func Init() {
	once.Do(func() {
		var err error
		node, err = snowflake.NewNode(1)
		if err != nil {
			log.Fatalf("Failed to init Snowflake: %v", err)
		}
	})
}

func GenerateID() int64 {
	if node == nil {
		Init()
	}
	return node.Generate().Int64()
}

// BatchUID mints a machine-unique batch code suitable for barcode encoding.
func BatchUID() string {
	return fmt.Sprintf("BT%d", GenerateID())
}
