package plugins

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"time"

	ckafka "github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/liweiming-nova/fundsync/config"
	"github.com/liweiming-nova/fundsync/idempotency"
	"github.com/liweiming-nova/fundsync/xlog"
	"github.com/panjf2000/ants/v2"
)

type HandlerFunc func(msg *ckafka.Message) error

type KafkaConsumerCfg struct {
	Brokers        []string `toml:"brokers"`
	Topics         []string `toml:"topics"`
	GroupID        string   `toml:"group_id"`
	MaxRetries     int      `toml:"max_retries"`
	WorkerPoolSize int      `toml:"worker_pool_size"`
	FetchMaxBytes  int      `toml:"fetch_max_bytes"`
	MaxPollRecords int      `toml:"max_poll_records"` // 每次拉取的最大消息数
}

// KafkaCfg Kafka配置
type KafkaCfg struct {
	Kafka *struct {
		Consumer *KafkaConsumerCfg `toml:"consumer"`
	} `toml:"kafka"`
}

// KafkaConsumerPlugin 带幂等判重的消费者。
// 配置了 guard 时，每条消息先 CheckAndMark 再进 handler，
// 重复投递直接提交跳过；handler 重试全部失败则撤销幂等标记，
// 让 broker 的下一次重投有机会重新处理。
type KafkaConsumerPlugin struct {
	ctx        context.Context
	getHandler func() HandlerFunc
	handler    HandlerFunc
	cfg        *KafkaConsumerCfg
	consumer   *ckafka.Consumer
	antsPool   *ants.Pool

	guard    *idempotency.Guard
	guardTTL time.Duration
}

type KafkaOption func(*KafkaConsumerPlugin)

// WithIdempotencyGuard 开启消费判重，ttl<=0 使用 guard 默认 TTL
func WithIdempotencyGuard(g *idempotency.Guard, ttl time.Duration) KafkaOption {
	return func(p *KafkaConsumerPlugin) {
		p.guard = g
		p.guardTTL = ttl
	}
}

func NewKafkaConsumerPlugin(getHandler func() HandlerFunc, opts ...KafkaOption) *KafkaConsumerPlugin {
	p := &KafkaConsumerPlugin{
		ctx:        context.Background(),
		getHandler: getHandler,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *KafkaConsumerPlugin) Start(ctx *PluginContext) error {
	p.loadCfg()
	p.handler = p.getHandler()
	if p.handler == nil {
		panic("handler is nil")
	}
	antsPoolSize := p.cfg.WorkerPoolSize
	if antsPoolSize <= 0 {
		// 默认核心数
		antsPoolSize = runtime.NumCPU()
	}

	antsPool, err := ants.NewPool(antsPoolSize)
	if err != nil {
		panic(err)
	}
	p.antsPool = antsPool

	conf := &ckafka.ConfigMap{
		"bootstrap.servers":  strings.Join(p.cfg.Brokers, ","),
		"group.id":           p.cfg.GroupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
	}

	if p.cfg.FetchMaxBytes > 0 {
		_ = conf.SetKey("fetch.max.bytes", p.cfg.FetchMaxBytes)
	}
	if p.cfg.MaxPollRecords > 0 {
		_ = conf.SetKey("max.poll.records", p.cfg.MaxPollRecords)
	}

	// 创建消费者实例
	consumer, err := ckafka.NewConsumer(conf)
	if err != nil {
		return err
	}
	p.consumer = consumer

	// 订阅主题
	if err := consumer.SubscribeTopics(p.cfg.Topics, nil); err != nil {
		_ = consumer.Close()
		return err
	}

	go p.pollMessage()

	log.Println("Started Kafka consumer successfully")
	return nil
}

func (p *KafkaConsumerPlugin) pollMessage() {
	for {
		msg, err := p.consumer.ReadMessage(100 * time.Millisecond)
		if err != nil {
			if kerr, ok := err.(ckafka.Error); ok {
				if kerr.Code() == ckafka.ErrTimedOut {
					continue
				}
				if kerr.Code() == ckafka.ErrUnknownTopicOrPart {
					xlog.Errorf(p.ctx, "Kafka topic error:%v", err)
					continue
				}
				if kerr.Code() == ckafka.ErrDestroy {
					log.Println("Consumer is closing, exiting polling loop")
					return
				}
			}
			continue
		}

		_ = p.antsPool.Submit(func() {
			p.processMessage(msg)
		})
	}
}

func (p *KafkaConsumerPlugin) processMessage(msg *ckafka.Message) {
	eventID := eventIDOf(msg)

	if p.guard != nil && !p.guard.CheckAndMark(p.ctx, eventID, p.guardTTL) {
		// 重复投递，提交位点后直接跳过
		if _, err := p.consumer.CommitMessage(msg); err != nil {
			xlog.Errorf(p.ctx, "Failed to commit duplicate message:%v", err)
		}
		return
	}

	var lastErr error
	maxRetries := p.cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	for i := 0; i < maxRetries+1; i++ {
		if i > 0 {
			time.Sleep(time.Second)
		}

		err := p.handler(msg)
		if err == nil {
			if _, err := p.consumer.CommitMessage(msg); err != nil {
				xlog.Errorf(p.ctx, "Failed to commit message:%v", err)
			}
			return
		}

		lastErr = err
	}

	// 处理失败，撤销幂等标记，等待 broker 重投后重新处理
	if p.guard != nil {
		if err := p.guard.Remove(p.ctx, eventID); err != nil {
			xlog.Errorf(p.ctx, "Failed to unmark event:%s err:%v", eventID, err)
		}
	}

	xlog.Errorf(p.ctx,
		"All retry attempts failed for message: topic=%s, partition=%d, offset=%d, err=%v",
		*msg.TopicPartition.Topic,
		msg.TopicPartition.Partition,
		int64(msg.TopicPartition.Offset),
		lastErr,
	)
}

// eventIDOf 优先用业务 key 判重，没有 key 的消息退回到位点坐标
func eventIDOf(msg *ckafka.Message) string {
	if len(msg.Key) > 0 {
		return fmt.Sprintf("%s:%s", *msg.TopicPartition.Topic, msg.Key)
	}
	return fmt.Sprintf("%s:%d:%d",
		*msg.TopicPartition.Topic, msg.TopicPartition.Partition, int64(msg.TopicPartition.Offset))
}

func (p *KafkaConsumerPlugin) Stop() error {
	p.consumer.Close()

	p.antsPool.Release()

	log.Println("Stopped Kafka consumer successfully")
	return nil
}
func (p *KafkaConsumerPlugin) BeforeStart(ctx *PluginContext) error {
	return nil
}

func (p *KafkaConsumerPlugin) loadCfg() {
	if os.Getenv("PLUGIN_TEST") == "true" {
		p.cfg = &KafkaConsumerCfg{
			Brokers: []string{"127.0.0.1:9092"},
			Topics:  []string{"test"},
			GroupID: "fundsync_test",
		}
		return
	}
	cfg := config.Get(&KafkaCfg{}).(*KafkaCfg)
	if cfg.Kafka == nil {
		panic("kafka config is nil")
	}

	p.cfg = cfg.Kafka.Consumer
}
