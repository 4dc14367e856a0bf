package utils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kageban/kageban/models"
)

var dummyPosts = map[string][]string{
	"general": {
		"大学生活、思ってたより忙しいです...",
		"今日は図書館で勉強してきました！",
		"来週からテスト期間、がんばろう",
		"新しいサークルに入るか迷っています",
		"大学の食堂のメニュー、もう少し増えてほしい",
		"友達と遊ぶ時間がなかなか取れない",
		"一人暮らし始めて3ヶ月、慣れました",
		"朝起きるのが本当に辛い...",
		"大学の授業、どれも面白いです",
		"バイトと勉強の両立が大変",
	},
	"job": {
		"就活って何から始めればいいんでしょうか？",
		"エントリーシート書くの難しい...",
		"面接で緊張しすぎてしまいます",
		"IT業界に興味があるんですが、どうでしょうか？",
		"インターンシップの選び方教えてください",
		"自己分析がうまくできません",
		"業界研究の進め方がわからない",
		"就活の軸が定まらなくて困ってます",
		"SPIの対策、どうしてますか？",
		"就活と学業の両立が大変です",
	},
	"class": {
		"レポートの書き方がわかりません",
		"この授業、単位取るの難しそう...",
		"プレゼンが来週あって緊張してます",
		"グループワークが苦手です",
		"教授に質問するタイミングがわからない",
		"授業についていけなくて困ってます",
		"テスト勉強のコツ教えてください",
		"出席は取る授業ですか？",
		"この科目、面白いですよ！",
		"期末レポートのテーマが決まらない",
	},
	"circle": {
		"新歓でサークル勧誘されました！",
		"テニスサークルって忙しいですか？",
		"軽音楽部に興味があります",
		"サークル掛け持ちってどうでしょう？",
		"合宿の準備が大変です",
		"サークルの人間関係が難しい...",
		"部費が思ったより高くて驚きました",
		"文化祭でサークル発表します",
		"OBの先輩方とのつながりが心強いです",
		"サークル辞めるタイミングがわからない",
	},
}

var dummyComments = []string{
	"わかります！同じ状況です",
	"頑張ってください！応援してます",
	"私も経験しました、大丈夫ですよ",
	"そうですね、難しい問題ですね",
	"参考になります、ありがとう",
	"同感です！",
	"いい考えですね",
	"私も気になってました",
	"情報共有ありがとうございます",
	"お疲れ様です",
}

// SeedDummyData fills an empty database with demo accounts and a month of
// backdated posts, comments and likes across every channel. It is a no-op
// once any post exists, so restarts never duplicate the data.
func SeedDummyData(db *gorm.DB) error {
	var existing int64
	if err := db.Model(&models.Post{}).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	if Sugar != nil {
		Sugar.Info("seeding dummy data")
	}

	hash, err := HashPassword("password123")
	if err != nil {
		return err
	}
	users := make([]models.User, 0, 5)
	for i := 1; i <= 5; i++ {
		user := models.User{Username: fmt.Sprintf("user%d", i), PasswordHash: hash}
		if err := db.Where("username = ?", user.Username).FirstOrCreate(&user).Error; err != nil {
			return err
		}
		users = append(users, user)
	}

	now := time.Now().UTC()
	var posts []models.Post
	for channel, contents := range dummyPosts {
		for _, content := range contents {
			author := users[rand.Intn(len(users))]
			age := time.Duration(rand.Intn(31))*24*time.Hour +
				time.Duration(rand.Intn(24))*time.Hour +
				time.Duration(rand.Intn(60))*time.Minute
			posts = append(posts, models.Post{
				UserID:    author.ID,
				Content:   content,
				Channel:   channel,
				CreatedAt: now.Add(-age),
			})
		}
	}
	if err := db.Create(&posts).Error; err != nil {
		return err
	}

	for _, post := range posts {
		for i := 0; i < rand.Intn(6); i++ {
			commenter := users[rand.Intn(len(users))]
			comment := models.Comment{
				PostID:    post.ID,
				UserID:    commenter.ID,
				Content:   dummyComments[rand.Intn(len(dummyComments))],
				SessionID: uuid.NewString(),
				CreatedAt: post.CreatedAt.Add(time.Duration(1+rand.Intn(48)) * time.Hour),
			}
			if err := db.Create(&comment).Error; err != nil {
				return err
			}
		}

		// Distinct likers per post, capped by the user pool.
		likers := rand.Perm(len(users))[:min(rand.Intn(9), len(users))]
		for _, idx := range likers {
			like := models.Like{UserID: users[idx].ID, PostID: post.ID, CreatedAt: now}
			if err := db.Create(&like).Error; err != nil {
				return err
			}
		}
	}

	if Sugar != nil {
		Sugar.Infof("seeded %d dummy posts with comments and likes", len(posts))
	}
	return nil
}
